package urlclean

import "testing"

func TestCleanURL_Sites(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"youtu.be", "https://youtu.be/dQw4w9WgXcQ?si=ABC123tracking", "https://youtu.be/dQw4w9WgXcQ"},
		{"youtube keeps video and time", "https://www.youtube.com/watch?v=abc&feature=share&t=42&si=x", "https://www.youtube.com/watch?v=abc&t=42"},
		{
			"amazon path and params",
			"https://www.amazon.com/product/B08N5WRWNW/ref=sr_1_1?crid=ABC&keywords=test&qid=123&sr=8-1",
			"https://www.amazon.com/product/B08N5WRWNW",
		},
		{"spotify", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"},
		{"google keeps query", "https://www.google.com/search?q=test&gs_lcrp=abc&ei=xyz&ved=123", "https://www.google.com/search?q=test"},
		{"instagram", "https://www.instagram.com/p/ABC123/?igsh=xyz789tracking", "https://www.instagram.com/p/ABC123/"},
		{"x.com", "https://x.com/user/status/123456?s=20&t=abc123tracking", "https://x.com/user/status/123456"},
		{"twitter", "https://twitter.com/user/status/1?ref_src=twsrc", "https://twitter.com/user/status/1"},
		{"walmart", "https://www.walmart.com/ip/123?athbdg=L1600&from=/search", "https://www.walmart.com/ip/123"},
		{"tiktok", "https://www.tiktok.com/@u/video/1?is_from_webapp=1&_r=1", "https://www.tiktok.com/@u/video/1"},
		{"global utm", "https://example.com/page?utm_source=twitter&utm_campaign=spring&fbclid=123", "https://example.com/page"},
		{"unknown utm param", "https://example.com/?utm_whatever=1&id=2", "https://example.com/?id=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanURL(tt.in); got != tt.want {
				t.Errorf("CleanURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanURL_Preserves(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no query", "https://example.com/path", "https://example.com/path"},
		{"order and encoding", "https://example.com/?b=%2Fx&utm_source=a&a=hello+world", "https://example.com/?b=%2Fx&a=hello+world"},
		{"fragment", "https://example.com/p?gclid=1#section", "https://example.com/p#section"},
		{"not a url", "just text", "just text"},
		{"no host", "mailto:someone@example.com", "mailto:someone@example.com"},
		{"unparseable", "http://[::1", "http://[::1"},
		{"case insensitive names", "https://example.com/?UTM_Source=x&q=1", "https://example.com/?q=1"},
		{"lookalike domain", "https://notx.com/a?s=1", "https://notx.com/a?s=1"},
		{"subdomain", "https://mobile.x.com/a?s=1", "https://mobile.x.com/a"},
		{"no ref in host", "https://ref=.amazon.com/x", "https://ref=.amazon.com/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanURL(tt.in); got != tt.want {
				t.Errorf("CleanURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"sentence",
			"Watch https://youtu.be/abc?si=zzz. Then reply!",
			"Watch https://youtu.be/abc. Then reply!",
		},
		{
			"multiple",
			"a https://example.com/?utm_source=x b https://x.com/u?s=20",
			"a https://example.com/ b https://x.com/u",
		},
		{
			"parenthesized",
			"(see https://example.com/p?fbclid=1)",
			"(see https://example.com/p)",
		},
		{
			"typographic quotes",
			"\u201Chttps://example.com/p?utm_source=a\u201D",
			"\u201Chttps://example.com/p\u201D",
		},
		{"no urls", "plain text only", "plain text only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanText(tt.in)
			if got != tt.want {
				t.Errorf("CleanText() = %q, want %q", got, tt.want)
			}
			if again := CleanText(got); again != got {
				t.Errorf("CleanText not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestIsTracking(t *testing.T) {
	for _, name := range []string{"utm_source", "fbclid", "GCLID", "utm_anything"} {
		if !IsTracking(name) {
			t.Errorf("IsTracking(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"q", "id", "v"} {
		if IsTracking(name) {
			t.Errorf("IsTracking(%q) = true, want false", name)
		}
	}
}
