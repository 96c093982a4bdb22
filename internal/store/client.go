package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// contextKey is an unexported type for context keys in this package.
type contextKey struct{}

// tokenKey is the context key for the caller's store auth token.
var tokenKey = contextKey{}

// WithToken returns a context carrying the given store auth token. The token
// is used by ClientFactory.ClientFor to authorize per-request clients.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFrom extracts the store auth token from the context, or "" if absent.
func TokenFrom(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey).(string); ok {
		return v
	}
	return ""
}

// Client wraps a pooled HTTP client with a fixed auth token and retry policy,
// talking JSON over HTTP to the workflow-definition service that owns model
// sets.
type Client struct {
	baseURL                string
	token                  string
	httpClient             *http.Client
	logger                 *slog.Logger
	maxRetries             int
	longOutageIntervalMins int
	longOutageThreshold    int
}

// ClientFactory creates per-request Clients. It holds the shared
// configuration (server URL) and a shared http.Client for connection pooling
// so that multiple callers authorizing with distinct tokens still reuse
// keep-alive connections to the same backend.
//
// In HTTP mode, an optional adminToken is used as a fallback for server-side
// operations (the scheduled auditor) that have no caller token in context.
type ClientFactory struct {
	baseURL                string
	adminToken             string
	httpClient             *http.Client
	logger                 *slog.Logger
	maxRetries             int
	longOutageIntervalMins int
	longOutageThreshold    int
}

// NewClientFactory creates a factory for per-request store clients. The
// shared http.Client reuses TCP connections across requests. adminToken is
// optional and used as a fallback when no token is in the request context.
// maxRetries controls how many times to retry failed requests (0 = no
// retries, -1 = infinite). longOutageIntervalMins is the interval between
// retries after many consecutive failures; longOutageThreshold is the number
// of consecutive failures before switching to that interval.
func NewClientFactory(baseURL, adminToken string, maxRetries, longOutageIntervalMins, longOutageThreshold int, logger *slog.Logger) *ClientFactory {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DisableKeepAlives: false,
		ForceAttemptHTTP2: true,
	}

	return &ClientFactory{
		baseURL:    baseURL,
		adminToken: adminToken,
		httpClient: &http.Client{
			Timeout:   5 * time.Minute,
			Transport: transport,
		},
		logger:                 logger,
		maxRetries:             maxRetries,
		longOutageIntervalMins: longOutageIntervalMins,
		longOutageThreshold:    longOutageThreshold,
	}
}

// ClientFor creates a store client using the auth token from the context. If
// no token is in context and adminToken is configured, the admin token is
// used instead. Returns an error if no token is available at all.
func (f *ClientFactory) ClientFor(ctx context.Context) (*Client, error) {
	token := TokenFrom(ctx)
	if token == "" {
		if f.adminToken != "" {
			token = f.adminToken
			f.logger.Debug("using admin token for server-side operation")
		} else {
			return nil, fmt.Errorf("no store token in request context and no admin token configured")
		}
	}

	return &Client{
		baseURL:                f.baseURL,
		token:                  token,
		httpClient:             f.httpClient,
		logger:                 f.logger,
		maxRetries:             f.maxRetries,
		longOutageIntervalMins: f.longOutageIntervalMins,
		longOutageThreshold:    f.longOutageThreshold,
	}, nil
}

// NewClient creates a Client with a fixed auth token. Use this for CLI tools
// that operate with a single known token rather than per-request tokens from
// HTTP headers.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger:                 logger,
		maxRetries:             5,
		longOutageIntervalMins: 5,
		longOutageThreshold:    20,
	}
}

// retryConfig holds retry behavior configuration.
type retryConfig struct {
	maxRetries          int
	initialBackoff      time.Duration
	maxBackoff          time.Duration
	backoffFactor       float64
	longOutageInterval  time.Duration
	longOutageThreshold int
}

func (c *Client) getRetryConfig() retryConfig {
	return retryConfig{
		maxRetries:          c.maxRetries,
		initialBackoff:      500 * time.Millisecond,
		maxBackoff:          1 * time.Minute,
		backoffFactor:       2.0,
		longOutageInterval:  time.Duration(c.longOutageIntervalMins) * time.Minute,
		longOutageThreshold: c.longOutageThreshold,
	}
}

// shouldRetry determines if an error is retryable.
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	errStr := err.Error()
	if errStr == "EOF" ||
		errStr == "unexpected EOF" ||
		errStr == "connection reset by peer" ||
		errStr == "broken pipe" {
		return true
	}

	return false
}

// withRetry wraps an operation with retry logic using exponential backoff. If
// maxRetries is -1 it retries indefinitely. After longOutageThreshold
// consecutive failures, it switches to longOutageInterval for less
// aggressive retrying.
func (c *Client) withRetry(ctx context.Context, operation string, fn func() error) error {
	cfg := c.getRetryConfig()
	var lastErr error

	attempt := 0
	consecutiveFailures := 0
	for {
		if cfg.maxRetries >= 0 && attempt > cfg.maxRetries {
			break
		}

		if attempt > 0 {
			inLongOutageMode := consecutiveFailures >= cfg.longOutageThreshold

			var backoff time.Duration
			if inLongOutageMode {
				backoff = cfg.longOutageInterval
				c.logger.Warn("retrying operation in long outage mode",
					"operation", operation,
					"attempt", attempt,
					"consecutive_failures", consecutiveFailures,
					"backoff", backoff,
					"error", lastErr,
				)
			} else {
				multiplier := 1 << uint(attempt-1)
				backoff = cfg.initialBackoff * time.Duration(multiplier)
				if backoff > cfg.maxBackoff {
					backoff = cfg.maxBackoff
				}

				c.logger.Warn("retrying operation after error",
					"operation", operation,
					"attempt", attempt,
					"max_retries", cfg.maxRetries,
					"backoff", backoff,
					"error", lastErr,
				)
			}

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fmt.Errorf("%s: context cancelled during retry: %w", operation, ctx.Err())
			}
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				c.logger.Info("operation succeeded after retry",
					"operation", operation,
					"attempts", attempt+1,
					"consecutive_failures", consecutiveFailures,
				)
			}
			return nil
		}

		lastErr = err

		if !shouldRetry(err) {
			return fmt.Errorf("%s: %w", operation, err)
		}

		attempt++
		consecutiveFailures++

		if cfg.maxRetries < 0 {
			if consecutiveFailures == cfg.longOutageThreshold {
				c.logger.Warn("switching to long outage mode",
					"operation", operation,
					"consecutive_failures", consecutiveFailures,
					"new_interval", cfg.longOutageInterval,
				)
			}
			if consecutiveFailures%10 == 0 {
				c.logger.Warn("still retrying operation in infinite mode",
					"operation", operation,
					"attempts", attempt,
					"consecutive_failures", consecutiveFailures,
					"last_error", lastErr,
				)
			}
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", operation, cfg.maxRetries+1, lastErr)
}

// GetModelSet fetches a named model set from the backing service.
func (c *Client) GetModelSet(ctx context.Context, id string) (ModelSet, error) {
	var set ModelSet
	err := c.withRetry(ctx, fmt.Sprintf("get model set %s", id), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/model-sets/"+id, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		var w wireModelSet
		if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
			return fmt.Errorf("decoding model set: %w", err)
		}
		set = fromWire(w)
		return nil
	})
	if err != nil {
		return ModelSet{}, err
	}
	c.logger.Debug("fetched model set", "id", id, "tags", len(set.Models))
	return set, nil
}

// PutModelSet persists a model set, overwriting whatever is currently stored
// under its ID.
func (c *Client) PutModelSet(ctx context.Context, set ModelSet) error {
	payload, err := json.Marshal(toWire(set))
	if err != nil {
		return fmt.Errorf("encoding model set: %w", err)
	}

	return c.withRetry(ctx, fmt.Sprintf("put model set %s", set.ID), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/model-sets/"+set.ID, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}
		return nil
	})
}

// ErrNotFound indicates a model set ID has no corresponding stored record.
var ErrNotFound = errors.New("model set not found")
