package dedup

import (
	"context"
	"net/url"
	"strings"

	"portfolio/pkg/logging"
)

const (
	titlePhraseWords    = 5
	titleMinWordLen     = 5
	titlePhraseMinChars = 11
)

// Reason names the heuristic that flagged a candidate.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonSourceLink  Reason = "source_link"
	ReasonLinkInBody  Reason = "link_in_body"
	ReasonPathInBody  Reason = "path_in_body"
	ReasonTitlePhrase Reason = "title_phrase"
)

// Lookup is the subset of the draft store the detector reads.
type Lookup interface {
	SourceLinkExists(ctx context.Context, link string) (bool, error)
	ContentContains(ctx context.Context, fragment string) (bool, error)
	TitleContains(ctx context.Context, phrase string) (bool, error)
}

type DetectorConfig struct {
	Store  Lookup
	Logger logging.Logger
}

// Detector decides whether a feed item was already written about.
type Detector struct {
	store  Lookup
	logger logging.Logger
}

func NewDetector(cfg DetectorConfig) *Detector {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Detector{store: cfg.Store, logger: logger}
}

// Check runs the heuristics in order and returns the first that matches.
// A store error is logged and counts as no match for that heuristic only.
func (d *Detector) Check(ctx context.Context, link, title string) Reason {
	if d == nil || d.store == nil {
		return ReasonNone
	}
	link = strings.TrimSpace(link)

	if link != "" {
		if d.probe(ctx, ReasonSourceLink, link, d.store.SourceLinkExists) {
			return d.hit(ReasonSourceLink, link)
		}
		if d.probe(ctx, ReasonLinkInBody, link, d.store.ContentContains) {
			return d.hit(ReasonLinkInBody, link)
		}
		if tail := PathTail(link); tail != "" && d.probe(ctx, ReasonPathInBody, tail, d.store.ContentContains) {
			return d.hit(ReasonPathInBody, link)
		}
	}
	if phrase := TitlePhrase(title); phrase != "" && d.probe(ctx, ReasonTitlePhrase, phrase, d.store.TitleContains) {
		return d.hit(ReasonTitlePhrase, link)
	}
	return ReasonNone
}

// IsDuplicate is Check reduced to a bool.
func (d *Detector) IsDuplicate(ctx context.Context, link, title string) bool {
	return d.Check(ctx, link, title) != ReasonNone
}

func (d *Detector) probe(ctx context.Context, reason Reason, arg string, fn func(context.Context, string) (bool, error)) bool {
	found, err := fn(ctx, arg)
	if err != nil {
		dedupLookupErrorsTotal.WithLabelValues(string(reason)).Inc()
		d.logger.WithError(err).WithField("check", string(reason)).Warn("Duplicate detector: lookup failed, treating as not duplicate")
		return false
	}
	return found
}

func (d *Detector) hit(reason Reason, link string) Reason {
	dedupHitsTotal.WithLabelValues(string(reason)).Inc()
	d.logger.WithFields(logging.Fields{
		"check": string(reason),
		"link":  link,
	}).Info("Duplicate detector: item already covered")
	return reason
}

// PathTail returns the last two non-empty path segments of rawURL joined
// with "/", or "" when the path has fewer than two.
func PathTail(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return ""
	}
	return segments[len(segments)-2] + "/" + segments[len(segments)-1]
}

// TitlePhrase joins the first five title words longer than four characters.
// Phrases of ten characters or fewer are too generic and yield "".
func TitlePhrase(title string) string {
	var words []string
	for _, w := range strings.Fields(title) {
		if len([]rune(w)) >= titleMinWordLen {
			words = append(words, w)
			if len(words) == titlePhraseWords {
				break
			}
		}
	}
	phrase := strings.Join(words, " ")
	if len([]rune(phrase)) < titlePhraseMinChars {
		return ""
	}
	return phrase
}
