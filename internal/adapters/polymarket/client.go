package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultGammaBase = "https://gamma-api.polymarket.com"
	defaultTimeout   = 15 * time.Second

	// Gamma /markets admite 300 req/10s; nos quedamos en el 60%.
	gammaRatePerSec = 18
	gammaBurst      = 10

	maxAttempts   = 4
	baseRetryWait = 500 * time.Millisecond
	maxRetryWait  = 10 * time.Second
)

// StatusError es una respuesta HTTP no exitosa de Gamma.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gamma: status %d", e.Code)
	}
	return fmt.Sprintf("gamma: status %d: %s", e.Code, e.Body)
}

// retryable: 429 y 5xx se reintentan, el resto de 4xx no.
func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client es el cliente HTTP de la Gamma API con rate limiting y reintentos.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient crea un Client contra gammaBase.
// gammaBase vacío usa producción; timeout <= 0 usa 15s.
func NewClient(gammaBase string, timeout time.Duration) *Client {
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		base:    gammaBase,
		limiter: rate.NewLimiter(gammaRatePerSec, gammaBurst),
	}
}

// getJSON hace GET base+path y decodifica el cuerpo en out.
// Errores de red, 429 y 5xx se reintentan con backoff exponencial.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			wait := backoff(attempt, lastErr)
			slog.Debug("gamma retry", "attempt", attempt+1, "wait", wait, "err", lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		lastErr = c.once(ctx, path, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var se *StatusError
		var de *decodeError
		if errors.As(lastErr, &de) || (errors.As(lastErr, &se) && !se.retryable()) {
			return lastErr
		}
	}
	return fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) once(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &retryAfterError{
			StatusError: &StatusError{Code: resp.StatusCode, Body: string(body)},
			after:       parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

// decodeError no se reintenta: el mismo cuerpo fallaría igual.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// retryAfterError lleva el Retry-After de un 429 hasta backoff.
type retryAfterError struct {
	*StatusError
	after time.Duration
}

func (e *retryAfterError) Unwrap() error { return e.StatusError }

func backoff(attempt int, lastErr error) time.Duration {
	var ra *retryAfterError
	if errors.As(lastErr, &ra) && ra.after > 0 {
		return min(ra.after, maxRetryWait)
	}
	return min(baseRetryWait<<(attempt-1), maxRetryWait)
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
