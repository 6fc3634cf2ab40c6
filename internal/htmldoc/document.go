// Package htmldoc provides a typed, read-only view of an HTML document.
//
// Callers query elements with FindAll(tag, filters...) instead of walking
// nodes by hand. The implementation is backed by goquery over
// golang.org/x/net/html, which salvages whatever it can from malformed
// markup, so parsing a page never fails on bad HTML; an empty result is a
// valid answer.
package htmldoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// invisibleTags never contribute to the visible text of a page.
const invisibleTags = "script, style, noscript, template"

// Document is a parsed HTML document.
type Document interface {
	// FindAll returns elements named tag that pass every filter, in
	// document order.
	FindAll(tag string, filters ...AttrFilter) []Element

	// Title returns the trimmed text of the <title> element.
	Title() string

	// VisibleText returns the text a reader would see, with script,
	// style, noscript and template content removed and whitespace
	// collapsed.
	VisibleText() string
}

// Element is one element returned by FindAll.
type Element struct {
	sel *goquery.Selection
}

// Tag returns the lower-case element name.
func (e Element) Tag() string {
	return goquery.NodeName(e.sel)
}

// Attr returns the value of the named attribute and whether it is present.
func (e Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

// Text returns the element's text with whitespace collapsed.
func (e Element) Text() string {
	return collapseSpace(e.sel.Text())
}

// AttrFilter restricts FindAll results.
type AttrFilter func(Element) bool

// HasAttr matches elements carrying the attribute, whatever its value.
func HasAttr(name string) AttrFilter {
	return func(e Element) bool {
		_, ok := e.Attr(name)
		return ok
	}
}

// AttrEquals matches elements whose attribute equals value exactly.
func AttrEquals(name, value string) AttrFilter {
	return func(e Element) bool {
		v, ok := e.Attr(name)
		return ok && v == value
	}
}

// AttrHasPrefix matches elements whose attribute starts with prefix.
func AttrHasPrefix(name, prefix string) AttrFilter {
	return func(e Element) bool {
		v, ok := e.Attr(name)
		return ok && strings.HasPrefix(v, prefix)
	}
}

// goqueryDocument implements Document with goquery.
type goqueryDocument struct {
	doc *goquery.Document
}

// Parse parses UTF-8 markup.
func Parse(markup string) (Document, error) {
	return ParseReader(strings.NewReader(markup))
}

// ParseReader parses UTF-8 markup from r.
func ParseReader(r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &goqueryDocument{doc: doc}, nil
}

// DecodeReader converts r to UTF-8 using the charset declared in
// contentType or sniffed from the markup.
func DecodeReader(r io.Reader, contentType string) (io.Reader, error) {
	decoded, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	return decoded, nil
}

// FindAll implements Document.
func (d *goqueryDocument) FindAll(tag string, filters ...AttrFilter) []Element {
	var out []Element
	d.doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		el := Element{sel: s}
		for _, f := range filters {
			if !f(el) {
				return
			}
		}
		out = append(out, el)
	})
	return out
}

// Title implements Document.
func (d *goqueryDocument) Title() string {
	return collapseSpace(d.doc.Find("title").First().Text())
}

// VisibleText implements Document.
func (d *goqueryDocument) VisibleText() string {
	body := d.doc.Find("body")
	if body.Length() == 0 {
		body = d.doc.Selection
	}
	clone := body.Clone()
	clone.Find(invisibleTags).Remove()
	return collapseSpace(clone.Text())
}

// WordCount counts whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
