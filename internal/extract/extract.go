// Package extract pulls visible text and anchor targets out of HTML pages.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// hiddenSelector matches elements whose content never renders as page text.
const hiddenSelector = "script, style, noscript"

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Parse parses body as HTML.
func Parse(body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Links returns the raw href of every anchor that carries one, in document
// order. Values are not resolved or filtered.
func (d *Document) Links() []string {
	var links []string
	d.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			links = append(links, href)
		}
	})
	return links
}

// Text returns the visible text of the page: script, style and noscript
// content is dropped, every remaining text node is trimmed, and non-empty
// nodes are joined with single spaces.
//
// Text works on a copy, so Links still sees the full document afterwards.
func (d *Document) Text() string {
	root := d.doc.Clone()
	root.Find(hiddenSelector).Remove()

	var parts []string
	for _, n := range root.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, " ")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			*parts = append(*parts, s)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// Text is a shortcut for Parse followed by Document.Text.
func Text(body []byte) (string, error) {
	doc, err := Parse(body)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}
