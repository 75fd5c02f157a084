package research

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

const (
	readabilityMinWords = 40
	// emptyShellWords is the word count below which extracted text most
	// likely came from a page that renders its body with JavaScript.
	emptyShellWords = 10
)

// extractPage runs readability and converts the article to markdown. When
// readability finds too little, a DOM walker that drops page chrome is used.
func extractPage(data []byte, pageURL string) (title, text string) {
	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err == nil && article.Node != nil {
		if md, mdErr := htmltomarkdown.ConvertNode(article.Node); mdErr == nil {
			text := normalizeContent(string(md))
			if len(strings.Fields(text)) >= readabilityMinWords {
				return article.Title(), text
			}
		}
		var buf bytes.Buffer
		_ = article.RenderText(&buf)
		text := normalizeContent(buf.String())
		if len(strings.Fields(text)) >= readabilityMinWords {
			return article.Title(), text
		}
	}

	node, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", ""
	}
	return documentTitle(node), walkText(node)
}

func looksLikeEmptyShell(text string) bool {
	return len(strings.Fields(text)) < emptyShellWords
}

func documentTitle(node *html.Node) string {
	var title string
	var find func(*html.Node) bool
	find = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			title = strings.TrimSpace(b.String())
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if find(c) {
				return true
			}
		}
		return false
	}
	find(node)
	return title
}

func walkText(node *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "script", "style", "noscript", "nav", "footer", "header", "aside", "form", "template", "title":
				return
			case "p", "div", "section", "article", "li", "pre", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6":
				b.WriteString("\n\n")
			}
			for _, attr := range n.Attr {
				if attr.Key == "hidden" || (attr.Key == "aria-hidden" && attr.Val == "true") {
					return
				}
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return normalizeContent(b.String())
}

// normalizeContent trims every line and folds runs of blank lines into one.
func normalizeContent(content string) string {
	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if !blank {
				cleaned = append(cleaned, "")
				blank = true
			}
			continue
		}
		blank = false
		cleaned = append(cleaned, trimmed)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
