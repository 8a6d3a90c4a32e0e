package normalize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		malformed bool
	}{
		{name: "adds root slash", input: "https://example.com", want: "https://example.com/"},
		{name: "strips fragment", input: "https://example.com/page#section", want: "https://example.com/page"},
		{name: "strips trailing slash on non-root", input: "https://example.com/about/", want: "https://example.com/about"},
		{name: "keeps root slash", input: "https://example.com/", want: "https://example.com/"},
		{name: "preserves query string", input: "https://example.com/search?q=test", want: "https://example.com/search?q=test"},
		{name: "collapses repeated slashes", input: "https://example.com/a//b///c", want: "https://example.com/a/b/c"},
		{name: "lowercases host and scheme", input: "HTTPS://Example.COM/Path", want: "https://example.com/Path"},
		{name: "strips default https port", input: "https://example.com:443/x", want: "https://example.com/x"},
		{name: "strips default http port", input: "http://example.com:80/x", want: "http://example.com/x"},
		{name: "keeps non-default port", input: "http://example.com:8080/x", want: "http://example.com:8080/x"},
		{name: "missing scheme is malformed", input: "example.com/x", want: "example.com/x", malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got.Malformed != tt.malformed {
				t.Fatalf("Malformed = %v, want %v", got.Malformed, tt.malformed)
			}
			if !tt.malformed && got.URL != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got.URL, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"https://Example.com//a/b/",
		"http://example.com:80/page?q=1#frag",
		"https://example.com/",
	}
	for _, in := range inputs {
		once := Normalize(in).URL
		twice := Normalize(once).URL
		if once != twice {
			t.Errorf("normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestInternal(t *testing.T) {
	tests := []struct {
		name      string
		seed      string
		candidate string
		want      bool
	}{
		{"exact match", "example.com", "example.com", true},
		{"subdomain is internal", "example.com", "sub.example.com", true},
		{"www is internal", "example.com", "www.example.com", true},
		{"different domain", "example.com", "other.com", false},
		{"substring but not subdomain is rejected", "example.test", "notexample.test", false},
		{"case insensitive", "Example.com", "EXAMPLE.COM", true},
		{"empty seed", "", "example.com", false},
		{"empty candidate", "example.com", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Internal(tt.seed, tt.candidate); got != tt.want {
				t.Errorf("Internal(%q, %q) = %v, want %v", tt.seed, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/", "/"},
		{"https://example.com/a/b", "/a/b"},
	}
	for _, tt := range tests {
		got, err := Path(tt.in)
		if err != nil {
			t.Fatalf("Path(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Path(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
