package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/skybot/core/telegram/netutil"
)

const (
	httpDialTimeout        = 10 * time.Second
	httpTLSTimeout         = 10 * time.Second
	httpResponseTimeout    = 65 * time.Second
	httpIdleTimeout        = 90 * time.Second
	httpMaxIdleConns       = 16
	httpTransportRetries   = 2
	httpTransportBaseDelay = 300 * time.Millisecond
)

// BuildHTTPClient returns the HTTP client used for long polling against
// the Bot API. The response timeout must exceed the long poll window.
func BuildHTTPClient() *http.Client {
	base := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   httpDialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   httpTLSTimeout,
		ResponseHeaderTimeout: httpResponseTimeout,
		IdleConnTimeout:       httpIdleTimeout,
		MaxIdleConns:          httpMaxIdleConns,
		MaxIdleConnsPerHost:   httpMaxIdleConns,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: &retryTransport{base: base},
	}
}

// retryTransport retries idempotent GET requests on transient network
// errors with a short linear backoff.
type retryTransport struct {
	base http.RoundTripper
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err == nil || req.Method != http.MethodGet || req.Body != nil {
		return resp, err
	}
	for attempt := 1; attempt <= httpTransportRetries; attempt++ {
		if !netutil.ShouldRetry(err) {
			return nil, err
		}
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(time.Duration(attempt) * httpTransportBaseDelay):
		}
		resp, err = t.base.RoundTrip(req)
		if err == nil {
			return resp, nil
		}
	}
	return nil, err
}
