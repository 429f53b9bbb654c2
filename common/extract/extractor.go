// Package extract turns raw page HTML into a readable article. It runs a
// readability pass first and falls back to the whole document body when
// readability yields nothing, so any well-formed HTML produces an article.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// ExcerptLength caps the fallback excerpt at 200 characters
const ExcerptLength = 200

// Article is the extracted readable content of a page
type Article struct {
	Title       string
	Byline      string
	SiteName    string
	Lang        string
	Content     string
	TextContent string
	Excerpt     string
	Length      int
}

// FromHTML extracts the main article from raw HTML. When readability fails
// or produces empty content, the entire document body is treated as the
// article. An error is returned only when even the fallback cannot parse
// the input.
func FromHTML(rawHTML string, pageURL *url.URL) (*Article, error) {
	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return &Article{
			Title:       article.Title,
			Byline:      article.Byline,
			SiteName:    article.SiteName,
			Lang:        article.Language,
			Content:     article.Content,
			TextContent: article.TextContent,
			Excerpt:     article.Excerpt,
			Length:      article.Length,
		}, nil
	}

	return fallback(rawHTML, pageURL)
}

// fallback builds a synthetic article from the raw document: document title,
// full body text, and the declared language attribute.
func fallback(rawHTML string, pageURL *url.URL) (*Article, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	title := findTitle(doc)
	if title == "" && pageURL != nil {
		title = pageURL.String()
	}

	body := findElement(doc, "body")
	var bodyText string
	if body != nil {
		bodyText = collectText(body)
	}

	excerpt := bodyText
	if len([]rune(excerpt)) > ExcerptLength {
		excerpt = string([]rune(excerpt)[:ExcerptLength])
	}

	return &Article{
		Title:       title,
		Lang:        findLang(doc),
		Content:     rawHTML,
		TextContent: bodyText,
		Excerpt:     excerpt,
		Length:      len(rawHTML),
	}, nil
}

func findTitle(doc *html.Node) string {
	node := findElement(doc, "title")
	if node == nil || node.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(node.FirstChild.Data)
}

func findLang(doc *html.Node) string {
	node := findElement(doc, "html")
	if node == nil {
		return ""
	}
	for _, a := range node.Attr {
		if a.Key == "lang" {
			return a.Val
		}
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	var result *html.Node
	var find func(*html.Node)
	find = func(node *html.Node) {
		if result != nil {
			return
		}
		if node.Type == html.ElementNode && node.Data == tag {
			result = node
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(n)
	return result
}

func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
			return
		}
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
