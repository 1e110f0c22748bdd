package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/llm"
)

func TestChat(t *testing.T) {
	t.Parallel()

	p := NewProvider("ollama", "http://mock", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/api/chat", r.URL.Path)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, false, body["stream"])

			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`{"message":{"role":"assistant","content":"pong"},"done":true,"prompt_eval_count":4,"eval_count":1}`)),
			}, nil
		}),
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Model: "llama3",
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: "ping"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "pong", resp.Message.Content)
	require.Equal(t, "stop", resp.FinishReason)
	require.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestStream(t *testing.T) {
	t.Parallel()

	p := NewProvider("ollama", "http://mock", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			lines := strings.Join([]string{
				`{"message":{"role":"assistant","content":"The "},"done":false}`,
				`{"message":{"role":"assistant","content":"name x"},"done":false}`,
				`{"message":{"role":"assistant","content":""},"done":true,"done_reason":"stop"}`,
			}, "\n")
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(lines)),
			}, nil
		}),
	}

	ch, errCh := p.Stream(context.Background(), llm.ChatRequest{
		Model: "llama3",
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: "hi"}},
	})

	var got []string
	for chunk := range ch {
		got = append(got, chunk.Content)
	}
	require.NoError(t, <-errCh)
	require.Equal(t, []string{"The ", "name x", ""}, got)
}

func TestStreamReportsInlineError(t *testing.T) {
	t.Parallel()

	p := NewProvider("ollama", "http://mock", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`{"error":"model not found"}`)),
			}, nil
		}),
	}

	ch, errCh := p.Stream(context.Background(), llm.ChatRequest{Model: "missing"})
	for range ch {
	}
	require.ErrorContains(t, <-errCh, "model not found")
}

func TestStreamNotCutByTimeout(t *testing.T) {
	t.Parallel()

	p := NewProvider("ollama", "http://mock", 50*time.Millisecond)
	p.client.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		pr, pw := io.Pipe()
		go func() {
			_, _ = io.WriteString(pw, `{"message":{"role":"assistant","content":"still "},"done":false}`+"\n")
			select {
			case <-time.After(200 * time.Millisecond):
			case <-r.Context().Done():
				pw.CloseWithError(r.Context().Err())
				return
			}
			_, _ = io.WriteString(pw, `{"message":{"role":"assistant","content":"going"},"done":true}`+"\n")
			pw.Close()
		}()
		return &http.Response{StatusCode: http.StatusOK, Header: make(http.Header), Body: pr}, nil
	})

	ch, errCh := p.Stream(context.Background(), llm.ChatRequest{Model: "llama3"})
	var content strings.Builder
	for chunk := range ch {
		content.WriteString(chunk.Content)
	}
	require.NoError(t, <-errCh)
	require.Equal(t, "still going", content.String())
}

func TestChatTimesOut(t *testing.T) {
	t.Parallel()

	p := NewProvider("ollama", "http://mock", 20*time.Millisecond)
	p.client.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	})

	_, err := p.Chat(context.Background(), llm.ChatRequest{Model: "llama3"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
