package llm

import (
	"context"
	"errors"
	"io"
	"testing"
)

type fakeProvider struct {
	chunks []string
	err    error
}

func (f *fakeProvider) Complete(_ context.Context, _ []Message) (Stream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &sliceStream{chunks: f.chunks}, nil
}

type sliceStream struct {
	chunks []string
	closed bool
}

func (s *sliceStream) Recv() (Chunk, error) {
	if len(s.chunks) == 0 {
		return Chunk{}, io.EOF
	}
	next := s.chunks[0]
	s.chunks = s.chunks[1:]
	return Chunk{Content: next}, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

func TestCollectJoinsAndTrims(t *testing.T) {
	p := &fakeProvider{chunks: []string{"  {\"a\"", ":1}\n"}}
	got, err := Collect(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got != `{"a":1}` {
		t.Fatalf("unexpected %q", got)
	}
}

func TestCollectPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := Collect(context.Background(), &fakeProvider{err: boom}, nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := Collect(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil provider")
	}
}

func TestTextStreamSingleChunk(t *testing.T) {
	s := &textStream{text: "whole reply"}
	chunk, err := s.Recv()
	if err != nil || chunk.Content != "whole reply" {
		t.Fatalf("unexpected first chunk %q, %v", chunk.Content, err)
	}
	if _, err := s.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	empty := &textStream{}
	if _, err := empty.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF on empty stream, got %v", err)
	}
}
