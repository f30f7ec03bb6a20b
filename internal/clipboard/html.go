package clipboard

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	htmlSpaceRun    = regexp.MustCompile(`[ \t\r\n\f]+`)
	htmlBlankLines  = regexp.MustCompile(`\n{3,}`)
	htmlTagFallback = regexp.MustCompile(`<[^>]*>`)
)

// htmlBlocks end a line of text.
var htmlBlocks = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "blockquote": true,
	"pre": true, "section": true, "article": true, "header": true, "footer": true,
	"ul": true, "ol": true, "table": true, "dt": true, "dd": true, "hr": true,
}

// htmlHidden never contribute text.
var htmlHidden = map[string]bool{
	"script": true, "style": true, "head": true, "title": true,
	"noscript": true, "template": true, "svg": true,
}

// HTMLToText extracts readable text from an HTML fragment, keeping line
// structure for block elements and <br>.
func HTMLToText(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return strings.TrimSpace(htmlTagFallback.ReplaceAllString(string(data), ""))
	}

	root := doc.Selection
	if body := doc.Find("body"); body.Length() > 0 {
		root = body
	}

	var b strings.Builder
	for _, n := range root.Nodes {
		writeHTMLNode(&b, n, false)
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Trim(line, " ")
	}
	text := strings.Join(lines, "\n")
	text = htmlBlankLines.ReplaceAllString(text, "\n\n")
	return strings.Trim(text, "\n")
}

func writeHTMLNode(b *strings.Builder, n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			b.WriteString(n.Data)
		} else {
			b.WriteString(htmlSpaceRun.ReplaceAllString(n.Data, " "))
		}
		return
	case html.ElementNode:
		if htmlHidden[n.Data] {
			return
		}
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
		if n.Data == "pre" {
			pre = true
		}
		if n.Data == "td" || n.Data == "th" {
			if prevElement(n) != nil {
				b.WriteByte('\t')
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeHTMLNode(b, c, pre)
	}

	if n.Type == html.ElementNode && htmlBlocks[n.Data] {
		b.WriteByte('\n')
	}
}

func prevElement(n *html.Node) *html.Node {
	for p := n.PrevSibling; p != nil; p = p.PrevSibling {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}
