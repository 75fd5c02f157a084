// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"errors"
	"io"
	"sync"

	"portfolio/pkg/llm"
)

// ErrExhausted is returned once every scripted reply has been consumed.
var ErrExhausted = errors.New("llmtest: no scripted reply left")

type reply struct {
	text string
	err  error
}

// Provider answers Complete calls from a queue of scripted replies, or from
// Respond when it is set.
type Provider struct {
	// Respond, when non-nil, answers every call and the queue is ignored.
	Respond func(messages []llm.Message) (string, error)

	mu      sync.Mutex
	replies []reply
	calls   [][]llm.Message
}

// New returns a provider that answers with texts in order.
func New(texts ...string) *Provider {
	p := &Provider{}
	for _, t := range texts {
		p.Push(t)
	}
	return p
}

func (p *Provider) Push(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, reply{text: text})
}

func (p *Provider) PushError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, reply{err: err})
}

// Calls returns the messages of every Complete call so far.
func (p *Provider) Calls() [][]llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]llm.Message(nil), p.calls...)
}

func (p *Provider) Complete(ctx context.Context, messages []llm.Message) (llm.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.calls = append(p.calls, messages)
	respond := p.Respond
	var next reply
	if respond == nil {
		if len(p.replies) == 0 {
			p.mu.Unlock()
			return nil, ErrExhausted
		}
		next = p.replies[0]
		p.replies = p.replies[1:]
	}
	p.mu.Unlock()

	if respond != nil {
		next.text, next.err = respond(messages)
	}
	if next.err != nil {
		return nil, next.err
	}
	return &stream{text: next.text}, nil
}

type stream struct {
	text string
	done bool
}

func (s *stream) Recv() (llm.Chunk, error) {
	if s.done {
		return llm.Chunk{}, io.EOF
	}
	s.done = true
	return llm.Chunk{Content: s.text}, nil
}

func (s *stream) Close() error { return nil }
