package feed

import "testing"

func TestDomainRewriter(t *testing.T) {
	rewriter := NewDomainRewriter(map[string]string{
		"pythoninsider.blogspot.com": "blog.python.org",
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"legacy host", "http://pythoninsider.blogspot.com/2026/03/post.html", "http://blog.python.org/2026/03/post.html"},
		{"https with query", "https://pythoninsider.blogspot.com/search?q=release#top", "https://blog.python.org/search?q=release#top"},
		{"upper case host", "http://PythonInsider.Blogspot.com/a", "http://blog.python.org/a"},
		{"port kept", "http://pythoninsider.blogspot.com:8080/a", "http://blog.python.org:8080/a"},
		{"userinfo kept", "http://me@pythoninsider.blogspot.com/a", "http://me@blog.python.org/a"},
		{"host only", "http://pythoninsider.blogspot.com", "http://blog.python.org"},
		{"other host", "http://example.com/pythoninsider.blogspot.com", "http://example.com/pythoninsider.blogspot.com"},
		{"subdomain untouched", "http://www.pythoninsider.blogspot.com/a", "http://www.pythoninsider.blogspot.com/a"},
		{"relative link", "/2026/03/post.html", "/2026/03/post.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rewriter.Rewrite(tt.in); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDomainRewriterNil(t *testing.T) {
	var rewriter *DomainRewriter
	link := "http://pythoninsider.blogspot.com/a"
	if got := rewriter.Rewrite(link); got != link {
		t.Errorf("Expected nil rewriter to pass link through, got %s", got)
	}
}
