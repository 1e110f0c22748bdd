package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/llm"
)

// Metrics receives backend accounting. *observability.Metrics satisfies it.
type Metrics interface {
	RecordBackendCall(purpose, model string, duration time.Duration)
	RecordBackendFailure(purpose, model string)
}

// Surface is the part of the host a generation call renders into.
type Surface interface {
	host.Conversation
	host.Menu
}

// LLM implements host.Backend on top of the provider registry.
type LLM struct {
	Strategy *StrategyEngine
	Surface  Surface
	Metrics  Metrics
	Logger   *zap.Logger
}

// Ask runs one generation call. Streaming output is written chunk by chunk to the
// surface; unless opts.SuppressMenu is set the menu is shown after a successful call.
func (b *LLM) Ask(ctx context.Context, req host.AskRequest, opts host.AskOptions) (host.AskResult, error) {
	provider, route, err := b.Strategy.ResolveModel(req.Purpose)
	if err != nil {
		return host.AskResult{}, fmt.Errorf("resolve model for %s: %w", req.Purpose, err)
	}

	chatReq := llm.ChatRequest{
		Model:       route.Model,
		Messages:    toChatMessages(req),
		MaxTokens:   route.MaxTokens,
		Temperature: pickTemperature(route.Temperature),
		Stream:      opts.Stream,
	}

	start := time.Now()
	var result string
	if opts.Stream {
		result, err = b.stream(ctx, provider, chatReq)
	} else {
		var resp llm.ChatResponse
		resp, err = provider.Chat(ctx, chatReq)
		result = resp.Message.Content
	}
	if err != nil {
		if b.Metrics != nil {
			b.Metrics.RecordBackendFailure(string(req.Purpose), route.Name)
		}
		b.logger().Warn("generation failed",
			zap.String("purpose", string(req.Purpose)),
			zap.String("model", route.Name),
			zap.Error(err))
		return host.AskResult{}, err
	}
	if b.Metrics != nil {
		b.Metrics.RecordBackendCall(string(req.Purpose), route.Name, time.Since(start))
	}
	b.logger().Debug("generation finished",
		zap.String("purpose", string(req.Purpose)),
		zap.String("model", route.Name),
		zap.Bool("stream", opts.Stream),
		zap.Duration("elapsed", time.Since(start)))

	if !opts.SuppressMenu && b.Surface != nil {
		b.Surface.ShowMenu()
	}
	return host.AskResult{Result: result}, nil
}

func (b *LLM) stream(ctx context.Context, provider llm.Provider, req llm.ChatRequest) (string, error) {
	chunks, errCh := provider.Stream(ctx, req)

	var sb strings.Builder
	for chunk := range chunks {
		if chunk.Content == "" {
			continue
		}
		sb.WriteString(chunk.Content)
		if b.Surface != nil {
			b.Surface.WriteChunk(chunk.Content)
		}
	}
	if b.Surface != nil {
		b.Surface.EndStream()
	}
	if err := <-errCh; err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (b *LLM) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func toChatMessages(req host.AskRequest) []llm.ChatMessage {
	msgs := make([]llm.ChatMessage, 0, len(req.Messages)+2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, llm.ChatMessage{Role: llm.RoleSystem, Content: req.SystemPrompt})
	}
	if req.UserPrompt != "" {
		msgs = append(msgs, llm.ChatMessage{Role: llm.RoleUser, Content: req.UserPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, llm.ChatMessage{Role: llm.Role(m.Role), Content: m.Content})
	}
	return msgs
}

func pickTemperature(routeTemp float64) float64 {
	if routeTemp > 0 {
		return routeTemp
	}
	return 0.2
}
