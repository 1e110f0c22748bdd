package llm

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a provider call when the config leaves it unset.
const DefaultTimeout = 60 * time.Second

// NewHTTPClient builds the client providers share. The timeout only bounds the wait for
// response headers so streamed bodies may run longer; non-streaming calls bound the whole
// exchange through their request context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{Transport: transport}
}
