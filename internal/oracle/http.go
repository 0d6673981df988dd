package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPOracle calls a remote scoring service over JSON. Every call runs under
// a bounded timeout so a slow oracle never holds a request open
// indefinitely.
type HTTPOracle struct {
	url     string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewHTTP returns an HTTPOracle posting to url. timeout bounds each
// evaluation; zero falls back to 25 seconds.
func NewHTTP(url, apiKey string, timeout time.Duration) *HTTPOracle {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &HTTPOracle{
		url:     url,
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *HTTPOracle) Evaluate(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("encoding evaluation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("building evaluation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("%w: oracle returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("%w: decoding oracle response: %v", ErrUnavailable, err)
	}
	if err := result.Validate(); err != nil {
		return Result{}, err
	}
	return result, nil
}
