// Package generate turns a feed item plus research into a structured blog
// post with a single model call.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio/internal/feeds"
	"portfolio/internal/recovery"
	"portfolio/internal/research"
	"portfolio/pkg/llm"
	"portfolio/pkg/logging"
)

const defaultTimeout = 5 * time.Minute

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty generation response")

// Post is the structured output requested from the model.
type Post struct {
	Title      string   `json:"title"`
	ShortTitle string   `json:"short_title"`
	Slug       string   `json:"slug"`
	Excerpt    string   `json:"excerpt"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
}

// PostSchema drives the recovery chain for Post.
var PostSchema = recovery.Schema{
	ShortFields: []string{"title", "short_title", "slug", "excerpt"},
	LongField:   "content",
	ListFields:  []string{"tags"},
	Required:    []string{"title"},
}

// Request is everything a single generation sees.
type Request struct {
	Item    feeds.Item
	Sources []research.Source
	// Style is the pipeline's standing writing brief.
	Style string
	// Instructions are extra editor notes for this run.
	Instructions string
}

// Result carries the post and the recovery tier that produced it.
type Result struct {
	Post Post
	Tier recovery.Tier
}

type GeneratorConfig struct {
	LLM     llm.Provider
	Logger  logging.Logger
	Timeout time.Duration
	// Label names the provider/model in metrics.
	Label string
}

type Generator struct {
	llm     llm.Provider
	logger  logging.Logger
	timeout time.Duration
	label   string
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	label := cfg.Label
	if label == "" {
		label = "default"
	}
	return &Generator{llm: cfg.LLM, logger: logger, timeout: timeout, label: label}
}

// Generate makes one model call and recovers a Post from its output. Any
// failure abandons the item; there are no retries.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	if g.llm == nil {
		return Result{}, errors.New("LLM provider not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := llm.Collect(ctx, g.llm, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: BuildPrompt(req)},
	})
	llmDuration.WithLabelValues(g.label).Observe(time.Since(start).Seconds())
	if err != nil {
		llmCallsTotal.WithLabelValues(g.label, "error").Inc()
		return Result{}, fmt.Errorf("generate post: %w", err)
	}
	if raw == "" {
		llmCallsTotal.WithLabelValues(g.label, "empty").Inc()
		return Result{}, ErrEmptyResponse
	}
	llmCallsTotal.WithLabelValues(g.label, "ok").Inc()

	var post Post
	tier, err := recovery.Decode(raw, PostSchema, &post)
	recoveryTierTotal.WithLabelValues(tier.String()).Inc()
	if err != nil {
		g.logger.WithError(err).WithFields(logging.Fields{
			"link":         req.Item.Link,
			"response_len": len(raw),
		}).Warn("Generator: structured output unrecoverable")
		return Result{}, fmt.Errorf("recover post: %w", err)
	}
	post = tidy(post)
	if post.Content == "" {
		g.logger.WithFields(logging.Fields{
			"link": req.Item.Link,
			"tier": tier.String(),
		}).Warn("Generator: recovered post has no body")
	}

	g.logger.WithFields(logging.Fields{
		"link":        req.Item.Link,
		"tier":        tier.String(),
		"content_len": len(post.Content),
		"tags":        len(post.Tags),
	}).Info("Generator: post generated")
	return Result{Post: post, Tier: tier}, nil
}

func tidy(p Post) Post {
	p.Title = strings.TrimSpace(p.Title)
	p.ShortTitle = strings.TrimSpace(p.ShortTitle)
	p.Slug = strings.TrimSpace(p.Slug)
	p.Excerpt = strings.TrimSpace(p.Excerpt)
	p.Content = strings.TrimSpace(p.Content)
	tags := make([]string, 0, len(p.Tags))
	seen := make(map[string]struct{}, len(p.Tags))
	for _, t := range p.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	p.Tags = tags
	return p
}
