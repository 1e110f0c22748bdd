package mock

import (
	"context"
	"sync"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/llm"
)

// Provider is a test double implementing llm.Provider.
type Provider struct {
	NameValue    string
	ChatFn       func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error)
	StreamChunks []llm.StreamChunk
	StreamErr    error

	mu      sync.Mutex
	chats   []llm.ChatRequest
	streams []llm.ChatRequest
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	p.mu.Lock()
	p.chats = append(p.chats, req)
	p.mu.Unlock()

	if p.ChatFn != nil {
		return p.ChatFn(ctx, req)
	}
	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: "mock",
		},
	}, nil
}

func (p *Provider) Stream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, <-chan error) {
	p.mu.Lock()
	p.streams = append(p.streams, req)
	p.mu.Unlock()

	ch := make(chan llm.StreamChunk, len(p.StreamChunks))
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for _, c := range p.StreamChunks {
			ch <- c
		}
		close(ch)
		if p.StreamErr != nil {
			errCh <- p.StreamErr
		}
	}()
	return ch, errCh
}

// ChatCalls returns the requests received by Chat.
func (p *Provider) ChatCalls() []llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.ChatRequest(nil), p.chats...)
}

// StreamCalls returns the requests received by Stream.
func (p *Provider) StreamCalls() []llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.ChatRequest(nil), p.streams...)
}
