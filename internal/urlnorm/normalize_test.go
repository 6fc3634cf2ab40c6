package urlnorm

import (
	"errors"
	"testing"
)

// TestNormalize tests canonicalization rules.
func TestNormalize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"root without slash", "https://ex.com", "https://ex.com/"},
		{"root with slash", "https://ex.com/", "https://ex.com/"},
		{"trailing slash removed", "https://ex.com/a/", "https://ex.com/a"},
		{"fragment stripped", "https://ex.com/a#frag", "https://ex.com/a"},
		{"query stripped", "https://ex.com/a?x=1", "https://ex.com/a"},
		{"scheme and host lower-cased", "HTTPS://EX.Com/Path", "https://ex.com/Path"},
		{"port kept", "http://ex.com:8080/a/", "http://ex.com:8080/a"},
		{"repeated trailing slashes", "https://ex.com/a///", "https://ex.com/a"},
		{"only slashes", "https://ex.com///", "https://ex.com/"},
		{"whitespace trimmed", "  https://ex.com/a  ", "https://ex.com/a"},
		{"escaped path preserved", "https://ex.com/a%20b/", "https://ex.com/a%20b"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Normalize(tc.input)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("Normalize(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

// TestNormalizeIdempotent verifies normalize(normalize(u)) == normalize(u).
func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://ex.com",
		"https://ex.com/a/",
		"https://ex.com/a#frag",
		"HTTP://Ex.COM:80/A/B/?q=1#x",
		"https://ex.com/%7Euser/",
		"https://ex.com/a%2Fb/",
		"https://ex.com//double//",
	}

	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q) returned error: %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q) returned error: %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

// TestNormalizeEquivalence verifies that fragment and trailing slash variants collapse.
func TestNormalizeEquivalence(t *testing.T) {
	t.Parallel()

	a := MustNormalize("https://ex.com/a/")
	b := MustNormalize("https://ex.com/a")
	c := MustNormalize("https://ex.com/a#frag")
	if a != b || b != c {
		t.Errorf("expected identical forms, got %q, %q, %q", a, b, c)
	}
}

// TestNormalizeRejects tests inputs that are not absolute http(s) URLs.
func TestNormalizeRejects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"/relative", "mailto:a@b.c", "ftp://ex.com/", "https://"} {
		_, err := Normalize(in)
		if err == nil {
			t.Errorf("expected error for %q", in)
			continue
		}
		if !errors.Is(err, ErrNotAbsolute) {
			t.Errorf("expected ErrNotAbsolute for %q, got %v", in, err)
		}
	}

	if got := MustNormalize("/relative"); got != "/relative" {
		t.Errorf("MustNormalize should return input on error, got %q", got)
	}
}

// TestResolve tests relative reference resolution.
func TestResolve(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		base     string
		href     string
		expected string
		ok       bool
	}{
		{"https://site.test/dir/page", "/b", "https://site.test/b", true},
		{"https://site.test/dir/page", "other/", "https://site.test/dir/other", true},
		{"https://site.test/dir/", "../up#x", "https://site.test/up", true},
		{"https://site.test/", "https://Other.test/x/", "https://other.test/x", true},
		{"https://site.test/", "//cdn.test/lib", "https://cdn.test/lib", true},
		{"https://site.test/", "mailto:a@site.test", "", false},
		{"https://site.test/", "javascript:void(0)", "", false},
		{"https://site.test/", "http://[::1", "", false},
	}

	for _, tc := range testCases {
		got, ok := Resolve(tc.base, tc.href)
		if ok != tc.ok || got != tc.expected {
			t.Errorf("Resolve(%q, %q) = (%q, %v), expected (%q, %v)",
				tc.base, tc.href, got, ok, tc.expected, tc.ok)
		}
	}
}

// TestResolveAbsolute tests resolution that keeps the query string.
func TestResolveAbsolute(t *testing.T) {
	t.Parallel()

	got, ok := ResolveAbsolute("https://site.test/a/", "b?x=1#frag")
	if !ok {
		t.Fatal("expected ok")
	}
	if got != "https://site.test/a/b?x=1" {
		t.Errorf("unexpected result %q", got)
	}

	if _, ok := ResolveAbsolute("https://site.test/", "tel:123"); ok {
		t.Error("expected tel: link to be rejected")
	}
}

// TestIsSameDomain tests host-only comparison.
func TestIsSameDomain(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		a, b     string
		expected bool
	}{
		{"https://site.test/a", "http://site.test/", true},
		{"https://SITE.test:8443/a", "https://site.test/", true},
		{"https://www.site.test/", "https://site.test/", false},
		{"https://other.test/", "https://site.test/", false},
		{"not a url", "https://site.test/", false},
	}

	for _, tc := range testCases {
		if got := IsSameDomain(tc.a, tc.b); got != tc.expected {
			t.Errorf("IsSameDomain(%q, %q) = %v, expected %v", tc.a, tc.b, got, tc.expected)
		}
	}
}

// TestIsSkippableHref tests the non-checkable href classes.
func TestIsSkippableHref(t *testing.T) {
	t.Parallel()

	skippable := []string{"", "  ", "#", "#top", "javascript:void(0)", "JavaScript:;", "mailto:x@y.z", "tel:+100", "data:text/plain,hi"}
	for _, href := range skippable {
		if !IsSkippableHref(href) {
			t.Errorf("expected %q to be skippable", href)
		}
	}

	checkable := []string{"/a", "https://site.test/", "page.html", "?q=1"}
	for _, href := range checkable {
		if IsSkippableHref(href) {
			t.Errorf("expected %q to be checkable", href)
		}
	}
}

// TestOriginAndPath tests the small URL helpers.
func TestOriginAndPath(t *testing.T) {
	t.Parallel()

	origin, err := Origin("HTTPS://Site.test:8443/a/b?q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if origin != "https://site.test:8443" {
		t.Errorf("unexpected origin %q", origin)
	}

	if _, err := Origin("/relative"); !errors.Is(err, ErrNotAbsolute) {
		t.Errorf("expected ErrNotAbsolute, got %v", err)
	}

	if p := Path("https://site.test"); p != "/" {
		t.Errorf("expected root path, got %q", p)
	}
	if p := Path("https://site.test/private/x"); p != "/private/x" {
		t.Errorf("unexpected path %q", p)
	}
}
