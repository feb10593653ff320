package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/metrics"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the per-call correlation id
const RequestIDHeader = "X-Request-ID"

// Config holds the collaborator connection settings
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerMinute int
	Burst         int
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithClock overrides the time source used for credential expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client talks to the finance REST API. A Client without a credential can
// only log in and register; use WithCredential for everything else.
type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	limiter  *rate.Limiter
	recorder metrics.Recorder
	now      func() time.Time
	cred     session.Credential
}

// New creates an unauthenticated Client
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  cfg.Timeout,
		http:     &http.Client{},
		recorder: metrics.NoOpRecorder{},
		now:      time.Now,
	}

	if cfg.RatePerMinute > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCredential returns a copy of c bound to cred. The limiter and
// HTTP client are shared with c.
func (c *Client) WithCredential(cred session.Credential) *Client {
	cp := *c
	cp.cred = cred
	return &cp
}

// Credential returns the bound credential
func (c *Client) Credential() session.Credential {
	return c.cred
}

type call struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	public      bool
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, in, out interface{}) error {
	cl, err := jsonCall(op, method, path, in)
	if err != nil {
		return err
	}
	cl.query = query
	return c.send(ctx, cl, out)
}

func jsonCall(op, method, path string, in interface{}) (call, error) {
	cl := call{op: op, method: method, path: path}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return call{}, fmt.Errorf("encode %s request: %w", op, err)
		}
		cl.body = bytes.NewReader(payload)
		cl.contentType = "application/json"
	}
	return cl, nil
}

func (c *Client) send(ctx context.Context, cl call, out interface{}) (err error) {
	start := time.Now()
	requestID := uuid.New().String()
	status := 0

	defer func() {
		elapsed := time.Since(start)
		c.recorder.ObserveRequest(cl.op, outcomeOf(err), elapsed)
		if err != nil {
			log.Warn().
				Err(err).
				Str("operation", cl.op).
				Str("method", cl.method).
				Str("path", cl.path).
				Int("status", status).
				Str("request_id", requestID).
				Dur("latency", elapsed).
				Msg("collaborator call failed")
			return
		}
		log.Debug().
			Str("operation", cl.op).
			Str("method", cl.method).
			Str("path", cl.path).
			Int("status", status).
			Str("request_id", requestID).
			Dur("latency", elapsed).
			Msg("collaborator call")
	}()

	if !cl.public {
		if c.cred.Token == "" {
			return &domain.APIError{Kind: domain.ErrAuth, Detail: "no credential bound"}
		}
		if c.cred.Expired(c.now()) {
			return &domain.APIError{Kind: domain.ErrAuth, Detail: "credential expired"}
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return &domain.APIError{Kind: domain.ErrNetwork, Detail: "rate limit wait aborted", Err: werr}
		}
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, cl.method, target, cl.body)
	if err != nil {
		return &domain.APIError{Kind: domain.ErrNetwork, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if cl.contentType != "" {
		httpReq.Header.Set("Content-Type", cl.contentType)
	}
	if !cl.public {
		httpReq.Header.Set("Authorization", c.cred.Header())
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &domain.APIError{Kind: domain.ErrNetwork, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.APIError{Kind: domain.ErrNetwork, Status: status, Err: err}
	}

	if status < 200 || status > 299 {
		return mapStatus(status, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.APIError{Kind: domain.ErrNetwork, Status: status, Detail: "malformed response body", Err: err}
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrAuth):
		return "auth"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "network"
	}
}
