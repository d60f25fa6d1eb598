package sanitize

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  black wallet  ", "black wallet"},
		{"<b>black</b> wallet", "black wallet"},
		{`<script>alert("x")</script>keys`, "keys"},
		{"Tom & Jerry", "Tom & Jerry"},
		{"<img src=x onerror=alert(1)>", ""},
		{"&lt;script&gt;alert(1)&lt;/script&gt;keys", "keys"},
		{"&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;", "bold"},
		{"5 &lt; 6", "5 < 6"},
	}

	for _, tt := range tests {
		if got := Text(tt.in); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextIsStable(t *testing.T) {
	inputs := []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;keys",
		"&amp;amp;lt;i&amp;amp;gt;x",
		"<p>lost &amp; found</p>",
	}
	for _, in := range inputs {
		once := Text(in)
		if twice := Text(once); twice != once {
			t.Errorf("Text not stable for %q: %q then %q", in, once, twice)
		}
		if strings.Contains(once, "<script") || strings.Contains(once, "<i>") {
			t.Errorf("Text(%q) = %q still carries markup", in, once)
		}
	}
}
