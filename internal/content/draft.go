package content

import (
	"errors"
	"time"
)

// AutomatedAuthor marks drafts created by the pipeline. The approval sweep
// only ever touches drafts carrying this author.
const AutomatedAuthor = "autopost"

var (
	ErrNotFound     = errors.New("draft not found")
	ErrSlugConflict = errors.New("slug already exists")
)

// Draft is a generated post awaiting moderation.
type Draft struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	Tags        []string   `json:"tags"`
	CoverImage  string     `json:"cover_image,omitempty"`
	SourceLink  string     `json:"source_link,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Author      string     `json:"author"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
