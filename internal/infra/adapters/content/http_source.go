// File: internal/infra/adapters/content/http_source.go
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"veracity-pipeline/internal/domain"
	"veracity-pipeline/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ContentSource = (*HTTPSource)(nil)

// HTTPSource resolves content references against an HTTP object store:
// HEAD probes existence and metadata, GET fetches the body. Transient
// failures are retried with bounded exponential backoff; 4xx responses
// are terminal.
type HTTPSource struct {
	base       string
	client     *http.Client
	maxRetries uint64
}

func NewHTTPSource(baseURL string, timeout time.Duration, maxRetries uint64) (*HTTPSource, error) {
	if baseURL == "" {
		return nil, errors.New("content base url empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSource{
		base:       strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}, nil
}

func (s *HTTPSource) refURL(ref string) string {
	return s.base + "/" + url.PathEscape(ref)
}

func (s *HTTPSource) Exists(ctx context.Context, ref string) (adapter.ObjectInfo, error) {
	var info adapter.ObjectInfo
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.refURL(ref), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			info = adapter.ObjectInfo{
				Size:        resp.ContentLength,
				ContentType: resp.Header.Get("Content-Type"),
			}
			if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
				info.LastModified = t
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(domain.ErrNotFound)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("content store http %d", resp.StatusCode))
		default:
			return fmt.Errorf("content store http %d", resp.StatusCode)
		}
	}
	if err := s.retry(ctx, op); err != nil {
		return adapter.ObjectInfo{}, err
	}
	return info, nil
}

func (s *HTTPSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.refURL(ref), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err = io.ReadAll(resp.Body)
			return err
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(domain.ErrNotFound)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("content store http %d", resp.StatusCode))
		default:
			return fmt.Errorf("content store http %d", resp.StatusCode)
		}
	}
	if err := s.retry(ctx, op); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *HTTPSource) retry(ctx context.Context, op backoff.Operation) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	return backoff.Retry(op, b)
}
