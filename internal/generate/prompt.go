package generate

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write posts for a software engineer's portfolio blog.
Write in clear, direct technical prose in markdown. Cite facts only from the
material provided; never invent versions, numbers or quotes.

Respond with ONLY one JSON object and no other text:
{
  "title": "full headline",
  "short_title": "headline of at most 60 characters",
  "slug": "url-safe-lowercase-slug",
  "excerpt": "one or two sentence summary",
  "content": "the full markdown body",
  "tags": ["tag", "tag"]
}
Escape newlines inside "content" as \n and quotes as \".`

// BuildPrompt renders the user message for one generation.
func BuildPrompt(req Request) string {
	var b strings.Builder

	if req.Style != "" {
		b.WriteString(req.Style)
		b.WriteString("\n\n")
	}

	b.WriteString("Primary source:\n")
	fmt.Fprintf(&b, "Title: %s\n", req.Item.Title)
	fmt.Fprintf(&b, "Link: %s\n", req.Item.Link)
	if req.Item.Source != "" {
		fmt.Fprintf(&b, "Feed: %s\n", req.Item.Source)
	}
	if !req.Item.PubDate.IsZero() {
		fmt.Fprintf(&b, "Published: %s\n", req.Item.PubDate.Format("2006-01-02"))
	}
	if req.Item.Content != "" {
		fmt.Fprintf(&b, "Summary:\n%s\n", req.Item.Content)
	}

	if len(req.Sources) > 0 {
		b.WriteString("\nSupplementary sources:\n")
		for i, src := range req.Sources {
			fmt.Fprintf(&b, "\n[%d] %s\n%s\n%s\n", i+1, src.Title, src.URL, src.Text)
		}
	}

	if strings.TrimSpace(req.Instructions) != "" {
		fmt.Fprintf(&b, "\nEditor instructions:\n%s\n", strings.TrimSpace(req.Instructions))
	}

	b.WriteString("\nLink the primary source in the body.")
	return b.String()
}
