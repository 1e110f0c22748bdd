package openai

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

func TestChatSendsRequestAndParsesResponse(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "key", 5*time.Second)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/v1/chat/completions", r.URL.Path)
			require.Equal(t, "Bearer key", r.Header.Get("Authorization"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			var reqBody map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &reqBody))
			require.Equal(t, "gpt-4o-mini", reqBody["model"])
			require.NotContains(t, reqBody, "stream")

			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body: io.NopCloser(strings.NewReader(`{
					"choices": [{
						"index": 0,
						"finish_reason": "stop",
						"message": {"role": "assistant", "content": "{\"answer\": \"Yes\"}"}
					}],
					"usage": {"prompt_tokens": 1, "completion_tokens": 2, "total_tokens": 3}
				}`)),
			}, nil
		}),
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: "hi"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, `{"answer": "Yes"}`, resp.Message.Content)
	require.Equal(t, "stop", resp.FinishReason)
	require.Equal(t, 3, resp.Usage.TotalTokens)
}

func TestChatReportsStatusErrors(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`rate limited`)),
			}, nil
		}),
	}

	_, err := p.Chat(context.Background(), llm.ChatRequest{Model: "m"})
	require.ErrorContains(t, err, "status 429")
}

func TestStreamParsesServerSentEvents(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.Contains(t, string(body), `"stream":true`)
			require.Equal(t, "text/event-stream", r.Header.Get("Accept"))

			sse := strings.Join([]string{
				`data: {"choices":[{"delta":{"role":"assistant"},"finish_reason":null}]}`,
				``,
				`data: {"choices":[{"delta":{"content":"You "},"finish_reason":null}]}`,
				``,
				`: keep-alive`,
				`data: {"choices":[{"delta":{"content":"forgot"},"finish_reason":null}]}`,
				``,
				`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
				``,
				`data: [DONE]`,
				``,
			}, "\n")
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(sse)),
			}, nil
		}),
	}

	ch, errCh := p.Stream(context.Background(), llm.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	})

	var content strings.Builder
	var finish string
	for chunk := range ch {
		content.WriteString(chunk.Content)
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}
	require.NoError(t, <-errCh)
	require.Equal(t, "You forgot", content.String())
	require.Equal(t, "stop", finish)
}

func TestStreamSurfacesTransportError(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`boom`)),
			}, nil
		}),
	}

	ch, errCh := p.Stream(context.Background(), llm.ChatRequest{Model: "m"})
	for range ch {
		t.Fatal("no chunks expected")
	}
	require.ErrorContains(t, <-errCh, "status 500")
}

func TestStreamOutlivesProviderTimeout(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "", 50*time.Millisecond)
	p.client.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		pr, pw := io.Pipe()
		go func() {
			_, _ = io.WriteString(pw, "data: {\"choices\":[{\"delta\":{\"content\":\"slow \"}}]}\n\n")
			select {
			case <-time.After(200 * time.Millisecond):
			case <-r.Context().Done():
				pw.CloseWithError(r.Context().Err())
				return
			}
			_, _ = io.WriteString(pw, "data: {\"choices\":[{\"delta\":{\"content\":\"answer\"}}]}\n\ndata: [DONE]\n\n")
			pw.Close()
		}()
		return &http.Response{StatusCode: http.StatusOK, Header: make(http.Header), Body: pr}, nil
	})

	ch, errCh := p.Stream(context.Background(), llm.ChatRequest{Model: "m"})
	var content strings.Builder
	for chunk := range ch {
		content.WriteString(chunk.Content)
	}
	require.NoError(t, <-errCh)
	require.Equal(t, "slow answer", content.String())
}

func TestChatHonoursProviderTimeout(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "", 20*time.Millisecond)
	p.client.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	})

	_, err := p.Chat(context.Background(), llm.ChatRequest{Model: "m"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
