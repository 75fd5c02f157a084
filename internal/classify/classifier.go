// Package classify asks a small model whether a generated post is worth
// publishing. It fails closed: any error is a rejection.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio/internal/recovery"
	"portfolio/pkg/llm"
	"portfolio/pkg/logging"
)

const (
	defaultTimeout    = 45 * time.Second
	maxExcerptRunes   = 1500
	systemPromptIntro = `You are a strict editorial gatekeeper for a technical blog.`
)

// Verdict is the classifier's decision.
type Verdict struct {
	Approved bool
	Reason   string
}

type response struct {
	Approved *bool  `json:"approved"`
	Reason   string `json:"reason"`
}

// Input is what the classifier judges.
type Input struct {
	Title   string
	Excerpt string
	Content string
	Link    string
}

type ClassifierConfig struct {
	LLM    llm.Provider
	Logger logging.Logger
	// Question is the pipeline-specific yes/no question.
	Question string
	Timeout  time.Duration
}

type Classifier struct {
	llm      llm.Provider
	logger   logging.Logger
	question string
	timeout  time.Duration
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Classifier{llm: cfg.LLM, logger: logger, question: cfg.Question, timeout: timeout}
}

// Classify returns the model's verdict. Errors from the model or an answer
// without a boolean "approved" field produce a rejection with the error.
func (c *Classifier) Classify(ctx context.Context, in Input) (Verdict, error) {
	v, err := c.classify(ctx, in)
	if err != nil {
		classificationsTotal.WithLabelValues("error").Inc()
		c.logger.WithError(err).WithField("title", in.Title).Warn("Classifier: failing closed")
		return Verdict{Approved: false, Reason: "classifier error: " + err.Error()}, err
	}
	if v.Approved {
		classificationsTotal.WithLabelValues("approved").Inc()
	} else {
		classificationsTotal.WithLabelValues("rejected").Inc()
	}
	c.logger.WithField("title", in.Title).WithField("approved", v.Approved).WithField("reason", v.Reason).Info("Classifier: verdict")
	return v, nil
}

func (c *Classifier) classify(ctx context.Context, in Input) (Verdict, error) {
	if c.llm == nil {
		return Verdict{}, errors.New("classifier provider not configured")
	}
	if strings.TrimSpace(c.question) == "" {
		return Verdict{}, errors.New("classifier question not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := llm.Collect(ctx, c.llm, []llm.Message{
		{Role: "system", Content: systemPrompt(c.question)},
		{Role: "user", Content: buildInput(in)},
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("classify: %w", err)
	}

	var resp response
	if err := recovery.DecodeStrict(raw, &resp); err != nil {
		return Verdict{}, fmt.Errorf("parse verdict: %w", err)
	}
	if resp.Approved == nil {
		return Verdict{}, errors.New("verdict missing approved field")
	}
	return Verdict{Approved: *resp.Approved, Reason: strings.TrimSpace(resp.Reason)}, nil
}

func systemPrompt(question string) string {
	return systemPromptIntro + "\n" + question + `
Respond with ONLY a JSON object: {"approved": true or false, "reason": "one short sentence"}`
}

func buildInput(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", in.Title)
	if in.Link != "" {
		fmt.Fprintf(&b, "Source: %s\n", in.Link)
	}
	if in.Excerpt != "" {
		fmt.Fprintf(&b, "Excerpt: %s\n", in.Excerpt)
	}
	body := []rune(in.Content)
	if len(body) > maxExcerptRunes {
		body = body[:maxExcerptRunes]
	}
	fmt.Fprintf(&b, "\nBody:\n%s\n", string(body))
	return b.String()
}
