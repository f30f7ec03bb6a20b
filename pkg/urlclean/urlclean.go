// Package urlclean strips tracking parameters and affiliate cruft from URLs.
package urlclean

import (
	"net/url"
	"regexp"
	"strings"
)

// Rule describes how URLs on one site are cleaned.
type Rule struct {
	// Domain matches the host itself and any of its subdomains.
	Domain string

	// Remove lists parameters dropped in addition to the global ones.
	Remove []string

	// Keep, when set, is the complete list of parameters that survive.
	Keep []string

	// TruncatePath cuts the path at the first occurrence of this marker.
	TruncatePath string
}

// trackingParams apply to every URL.
var trackingParams = set(
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"utm_id", "utm_source_platform", "utm_creative_format", "utm_marketing_tactic",
	"fbclid", "fb_action_ids", "fb_action_types", "fb_source", "fb_ref",
	"gclid", "gclsrc", "dclid",
	"mc_cid", "mc_eid",
	"_hsenc", "_hsmi",
	"mkt_tok",
	"vero_id",
	"msclkid",
)

// Rules lists the site-specific rules, first match wins.
var Rules = []Rule{
	{Domain: "youtube.com", Remove: []string{"feature", "si", "app"}, Keep: []string{"v", "list", "t"}},
	{Domain: "youtu.be", Remove: []string{"si", "feature"}},
	{Domain: "open.spotify.com", Remove: []string{"si", "context"}},
	{
		Domain: "amazon.com",
		Remove: []string{
			"crid", "dib", "dib_tag", "keywords", "qid", "sprefix", "sr",
			"pd_rd_w", "pf_rd_s", "pf_rd_p", "pf_rd_t", "pf_rd_i", "pf_rd_m",
			"pf_rd_r", "pd_rd_wg", "pd_rd_r", "linkcode", "tag", "linkid",
			"geniuslink", "ref", "ref_", "content-id", "psc", "th", "ascsubtag",
		},
		TruncatePath: "/ref=",
	},
	{
		Domain: "google.com",
		Remove: []string{
			"gs_lcrp", "gs_lp", "sca_esv", "ei", "iflsig", "sclient",
			"rlz", "bih", "biw", "dpr", "ved", "sa", "fbs", "source",
			"sourceid", "aqs", "oq",
		},
		Keep: []string{"q", "tbm", "tbs"},
	},
	{Domain: "instagram.com", Remove: []string{"igshid", "igsh"}},
	{Domain: "twitter.com", Remove: []string{"s", "t", "ref_src", "ref_url"}},
	{Domain: "x.com", Remove: []string{"s", "t", "ref_src", "ref_url"}},
	{Domain: "walmart.com", Remove: []string{"from", "sid", "athbdg", "athancid", "athcpid"}},
	{Domain: "tiktok.com", Remove: []string{"is_copy_url", "is_from_webapp", "_r"}},
}

type compiledRule struct {
	Rule
	remove map[string]struct{}
	keep   map[string]struct{}
}

var compiled = compile(Rules)

// textURL finds http(s) URLs in running text. Quotes of either kind and
// brackets end a URL.
var textURL = regexp.MustCompile("https?://[^\\s<>\"'{}|\\\\^`\\[\\]\u201C\u201D\u2018\u2019\u00AB\u00BB]+")

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[strings.ToLower(it)] = struct{}{}
	}
	return m
}

func compile(rules []Rule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{Rule: r, remove: set(r.Remove...)}
		if r.Keep != nil {
			cr.keep = set(r.Keep...)
		}
		out = append(out, cr)
	}
	return out
}

func ruleFor(host string) *compiledRule {
	for i := range compiled {
		d := compiled[i].Domain
		if host == d || strings.HasSuffix(host, "."+d) {
			return &compiled[i]
		}
	}
	return nil
}

// IsTracking reports whether the parameter is dropped on every site.
func IsTracking(name string) bool {
	name = strings.ToLower(name)
	if _, ok := trackingParams[name]; ok {
		return true
	}
	return strings.HasPrefix(name, "utm_")
}

func keepParam(name string, rule *compiledRule) bool {
	name = strings.ToLower(name)
	if rule != nil && rule.keep != nil {
		_, ok := rule.keep[name]
		return ok
	}
	if IsTracking(name) {
		return false
	}
	if rule != nil {
		if _, ok := rule.remove[name]; ok {
			return false
		}
	}
	return true
}

// CleanURL removes tracking parameters from a single absolute URL.
// Kept parameters retain their order and encoding. Anything that does not
// parse as a URL with a host is returned unchanged.
func CleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	rule := ruleFor(strings.ToLower(u.Hostname()))

	rest, fragment := raw, ""
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest, fragment = rest[:i], rest[i:]
	}
	base, query, hasQuery := strings.Cut(rest, "?")

	changed := false
	var kept []string
	if hasQuery {
		for _, seg := range strings.Split(query, "&") {
			name, _, _ := strings.Cut(seg, "=")
			if n, err := url.QueryUnescape(name); err == nil {
				name = n
			}
			name = strings.TrimLeft(name, "?")
			if seg == "" || keepParam(name, rule) {
				kept = append(kept, seg)
				continue
			}
			changed = true
		}
	}

	if rule != nil && rule.TruncatePath != "" {
		if truncated, ok := truncatePath(base, rule.TruncatePath); ok {
			base = truncated
			changed = true
		}
	}

	if !changed {
		return raw
	}

	var sb strings.Builder
	sb.WriteString(base)
	if len(kept) > 0 {
		sb.WriteByte('?')
		sb.WriteString(strings.Join(kept, "&"))
	}
	sb.WriteString(fragment)
	return sb.String()
}

// truncatePath cuts the path part of base (never the scheme or host) at marker.
func truncatePath(base, marker string) (string, bool) {
	start := 0
	if i := strings.Index(base, "://"); i >= 0 {
		start = i + len("://")
	}
	slash := strings.IndexByte(base[start:], '/')
	if slash < 0 {
		return base, false
	}
	pathStart := start + slash
	i := strings.Index(base[pathStart:], marker)
	if i < 0 {
		return base, false
	}
	return base[:pathStart+i], true
}

// CleanText cleans every http(s) URL found in text. Sentence punctuation
// directly after a URL is not treated as part of it.
func CleanText(text string) string {
	if !strings.Contains(text, "://") {
		return text
	}
	return textURL.ReplaceAllStringFunc(text, func(match string) string {
		core, tail := splitTrailing(match)
		return CleanURL(core) + tail
	})
}

func splitTrailing(s string) (string, string) {
	end := len(s)
	for end > 0 {
		c := s[end-1]
		if strings.IndexByte(".,;:!?", c) >= 0 {
			end--
			continue
		}
		if c == ')' && !strings.Contains(s[:end], "(") {
			end--
			continue
		}
		break
	}
	return s[:end], s[end:]
}
