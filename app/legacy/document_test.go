package legacy

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/lysyi3m/content-comb/app/markup"
)

func TestLogicalPath(t *testing.T) {
	tests := []struct {
		root string
		file string
		want string
	}{
		{"/legacy/pydotorg", "/legacy/pydotorg/about/content.ht", "about"},
		{"/legacy/pydotorg/", "/legacy/pydotorg/about/success/acme/content.rst", "about/success/acme"},
		{"/legacy/pydotorg", "/legacy/pydotorg/news/body.html", "news"},
		{"/legacy/pydotorg", "/legacy/pydotorg/doc/faqcontent.ht", "doc/faq"},
		{"/legacy/pydotorg", "/legacy/pydotorg/content.ht", ""},
		{"/legacy/pydotorg", "/legacy/pydotorg/body.html", ""},
	}

	for _, tt := range tests {
		got := LogicalPath(tt.root, tt.file)
		if got != tt.want {
			t.Errorf("LogicalPath(%q, %q): expected %q, got %q", tt.root, tt.file, tt.want, got)
		}
		if strings.HasPrefix(got, "/") || strings.Contains(got, "pydotorg") {
			t.Errorf("LogicalPath(%q, %q) kept root or separator: %q", tt.root, tt.file, got)
		}
	}
}

func TestIsContentFile(t *testing.T) {
	tests := map[string]bool{
		"/a/content.ht":     true,
		"/a/content.rst":    true,
		"/a/body.html":      true,
		"/a/faqcontent.ht":  true,
		"/a/mybody.html":    false,
		"/a/content.html":   false,
		"/a/logo.png":       false,
		"/a/content.ht.bak": false,
	}

	for name, want := range tests {
		if got := IsContentFile(name); got != want {
			t.Errorf("IsContentFile(%q): expected %t, got %t", name, want, got)
		}
	}
}

func TestFileParserHeaderFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/tree/about/content.rst", `Title: About Python
Keywords: python,
  language

About
=====

Python is *great*.
`)

	doc, err := NewFileParser().Parse(fs, "/tree/about/content.rst")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if doc.Header("title") != "About Python" {
		t.Errorf("Expected title header, got %q", doc.Header("title"))
	}
	if doc.Header("keywords") != "python, language" {
		t.Errorf("Expected continued keywords header, got %q", doc.Header("keywords"))
	}
	if doc.ContentType != markup.DialectReStructuredText {
		t.Errorf("Expected restructuredtext, got %s", doc.ContentType)
	}
	if !strings.HasPrefix(doc.Content, "About\n=====") {
		t.Errorf("Expected body after headers, got %q", doc.Content)
	}
}

func TestFileParserDetectsHTML(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/tree/content.ht", "Title: Home\r\n\r\n<p>Welcome</p>\r\n")

	doc, err := NewFileParser().Parse(fs, "/tree/content.ht")
	if err != nil {
		t.Fatal(err)
	}
	if doc.ContentType != markup.DialectHTML {
		t.Errorf("Expected html, got %s", doc.ContentType)
	}
	if doc.Header("title") != "Home" {
		t.Errorf("Expected CRLF headers to parse, got %q", doc.Header("title"))
	}
}

func TestFileParserErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/tree/bad/content.ht", "  indented first line\n\nbody\n")
	writeFile(t, fs, "/tree/empty/body.html", "")

	parser := NewFileParser()
	for _, file := range []string{"/tree/bad/content.ht", "/tree/empty/body.html", "/tree/missing/content.ht"} {
		if _, err := parser.Parse(fs, file); err == nil {
			t.Errorf("Expected error for %s", file)
		}
	}
}

func TestFileParserBodyHTML(t *testing.T) {
	paragraph := strings.Repeat("Python is a programming language that lets you work quickly and integrate systems more effectively. ", 4)
	page := `<!DOCTYPE html>
<html>
<head>
	<title>Python Success Stories</title>
	<meta name="keywords" content="success, stories">
	<meta name="description" content="Stories from Python users">
</head>
<body>
	<nav><a href="/">Home</a> <a href="/about">About</a></nav>
	<article>
		<h1>Success Stories</h1>
		<p>` + paragraph + `</p>
		<p>` + paragraph + `</p>
	</article>
	<footer><p>Copyright Python Software Foundation</p></footer>
</body>
</html>`

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/tree/about/success/body.html", page)

	doc, err := NewFileParser().Parse(fs, "/tree/about/success/body.html")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if doc.Header("title") != "Python Success Stories" {
		t.Errorf("Expected title from <title>, got %q", doc.Header("title"))
	}
	if doc.Header("keywords") != "success, stories" {
		t.Errorf("Expected keywords from meta, got %q", doc.Header("keywords"))
	}
	if doc.Header("description") != "Stories from Python users" {
		t.Errorf("Expected description from meta, got %q", doc.Header("description"))
	}
	if doc.ContentType != markup.DialectHTML {
		t.Errorf("Expected html, got %s", doc.ContentType)
	}
	if !strings.Contains(doc.Content, "integrate systems more effectively") {
		t.Errorf("Expected main content to be kept, got %q", doc.Content)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"logo.png", "logo.png", false},
		{"Caf%C3%A9_logo.png", "Cafe-logo.png", false},
		{"Zürich team photo.jpg", "Zurich-team-photo.jpg", false},
		{"a$b&c(1).gif", "abc1.gif", false},
		{".htaccess", "", true},
		{"日本語", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := SanitizeFilename(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SanitizeFilename(%q): expected error=%t, got %v", tt.in, tt.wantErr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SanitizeFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
