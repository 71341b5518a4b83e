// Package remote implements the client for the jewelry REST API.
//
// A Backend owns everything shared between shoppers: the HTTP client, retry
// policy, circuit breaker, outbound rate limiter and telemetry. Each page
// session gets its own lightweight Client bound to that session's token.
// Clients hold no cart or wishlist state; the API is the source of truth.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"storefront/internal/middleware"
	"storefront/internal/model"
)

// serviceName labels errors, spans and the breaker.
const serviceName = "jewelry API"

// userAgent identifies the storefront to the backend.
const userAgent = "storefront-bff/1.0"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// Options configures a Backend.
type Options struct {
	BaseURL    string
	Timeout    time.Duration // per attempt; default 10s
	MaxRetries int           // extra attempts for GET and DELETE
	RetryWait  time.Duration // first backoff step, doubled per attempt
	RetryMax   time.Duration // backoff ceiling
	RateLimit  float64       // requests per second; 0 disables
	RateBurst  int
	Transport  http.RoundTripper
	Logger     *slog.Logger
	Breaker    BreakerOptions
}

// BreakerOptions tunes the circuit breaker guarding the backend.
type BreakerOptions struct {
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state counter reset period
	OpenTimeout  time.Duration // how long the breaker stays open
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerOptions trips after half of at least five calls fail.
func DefaultBreakerOptions() BreakerOptions {
	return BreakerOptions{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		OpenTimeout:  30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// Backend is the shared connection to the jewelry API.
type Backend struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	maxRetries int
	retryWait  time.Duration
	retryMax   time.Duration
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*response]
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewBackend validates opts and builds a Backend.
func NewBackend(opts Options) (*Backend, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if !strings.HasPrefix(opts.BaseURL, "http://") && !strings.HasPrefix(opts.BaseURL, "https://") {
		return nil, fmt.Errorf("base URL must be http or https: %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 200 * time.Millisecond
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Breaker == (BreakerOptions{}) {
		opts.Breaker = DefaultBreakerOptions()
	}

	b := &Backend{
		httpClient: &http.Client{Transport: opts.Transport},
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		retryWait:  opts.RetryWait,
		retryMax:   opts.RetryMax,
		tracer:     otel.Tracer("storefront/remote"),
		logger:     opts.Logger,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	b.breaker = newBreaker(opts.Breaker, opts.Logger)
	return b, nil
}

func newBreaker(opts BreakerOptions, logger *slog.Logger) *gobreaker.CircuitBreaker[*response] {
	settings := gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: opts.MaxRequests,
		Interval:    opts.Interval,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < opts.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= opts.FailureRatio
		},
		// A shopper's bad request or expired session says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || !model.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.Set(stateToFloat(to))
		},
	}
	breakerState.Set(0)
	return gobreaker.NewCircuitBreaker[*response](settings)
}

// BaseURL returns the configured API root without a trailing slash.
func (b *Backend) BaseURL() string {
	return b.baseURL
}

// GoogleAuthURL is where the browser goes for the OAuth login redirect.
func (b *Backend) GoogleAuthURL() string {
	return b.baseURL + "/auth/google"
}

// Client binds a per-session view of the backend to tokens.
func (b *Backend) Client(tokens TokenSource) *Client {
	return &Client{backend: b, tokens: tokens}
}

// Anonymous returns a client for the public catalog reads.
// Authorized calls through it fail with an auth error.
func (b *Backend) Anonymous() *Client {
	return &Client{backend: b, tokens: StaticToken("")}
}

// request describes one logical API call.
type request struct {
	op            string // metric and span name, e.g. "fetch_cart"
	method        string
	path          string
	body          []byte
	contentType   string
	token         string
	resource      string // noun used in not-found errors
	notFoundIsNil bool   // idempotent delete
}

// response is the buffered result of one attempt.
type response struct {
	status int
	body   []byte
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(op, method, path string, payload any) (request, error) {
	req := request{op: op, method: method, path: path}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return req, fmt.Errorf("marshaling request: %w", err)
		}
		req.body = body
		req.contentType = "application/json"
	}
	return req, nil
}

// retryable reports whether the method may be replayed safely.
func (r request) retryable() bool {
	return r.method == http.MethodGet || r.method == http.MethodDelete
}

// send executes req with retry, breaker, limiter and telemetry, and decodes
// a 2xx JSON body into out when out is non-nil.
func (b *Backend) send(ctx context.Context, req request, out any) error {
	ctx, span := b.tracer.Start(ctx, "jewelry."+req.op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("url.path", req.path),
		))
	defer span.End()

	start := time.Now()
	err := b.sendWithRetry(ctx, req, out)
	observeCall(req.op, err, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.DebugContext(ctx, "backend call failed",
			slog.String("op", req.op),
			slog.String("method", req.method),
			slog.String("path", req.path),
			slog.String("request_id", middleware.RequestIDFromContext(ctx)),
			slog.Any("error", err),
		)
	}
	return err
}

func (b *Backend) sendWithRetry(ctx context.Context, req request, out any) error {
	attempts := 1
	if req.retryable() {
		attempts += b.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := b.retryWait * time.Duration(1<<uint(attempt-1))
			if wait > b.retryMax {
				wait = b.retryMax
			}
			retriesTotal.WithLabelValues(req.op).Inc()
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return contextError(ctx.Err())
			}
		}

		resp, err := b.attempt(ctx, req)
		if err == nil {
			return decodeResponse(req, resp, out)
		}
		lastErr = err
		if !model.IsTransient(err) || errors.Is(err, errBreakerOpen) {
			break
		}
	}
	return lastErr
}

// errBreakerOpen marks calls short-circuited by the breaker.
var errBreakerOpen = errors.New("circuit open")

// attempt runs one HTTP exchange under the per-attempt timeout.
func (b *Backend) attempt(ctx context.Context, req request) (*response, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, model.NewRateLimitError(serviceName)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.breaker.Execute(func() (*response, error) {
		return b.roundTrip(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		apiErr := model.NewServerError(serviceName, http.StatusServiceUnavailable, "temporarily unavailable")
		return nil, errors.Join(apiErr, errBreakerOpen)
	}
	return resp, err
}

// roundTrip performs the HTTP exchange and classifies the outcome.
// Non-2xx statuses come back as typed errors so the breaker can judge them.
func (b *Backend) roundTrip(ctx context.Context, req request) (*response, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, b.baseURL+req.path, body)
	if err != nil {
		return nil, model.NewInternalError(fmt.Errorf("building request: %w", err))
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	requestID := middleware.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set(middleware.RequestIDHeader, requestID)

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(ctx, err)
	}

	resp := &response{status: httpResp.StatusCode, body: data}
	if resp.status >= 200 && resp.status < 300 {
		return resp, nil
	}
	if resp.status == http.StatusNotFound && req.notFoundIsNil {
		return resp, nil
	}
	return nil, parseError(resp.status, data, req.resource)
}

// transportError separates deadline expiry from other transport failures.
func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return model.NewTimeoutError(serviceName)
	}
	if errors.Is(err, context.Canceled) {
		return contextError(err)
	}
	return model.NewNetworkError(serviceName, err)
}

// contextError maps a finished caller context onto the error taxonomy.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewTimeoutError(serviceName)
	}
	return fmt.Errorf("request abandoned: %w", err)
}

func decodeResponse(req request, resp *response, out any) error {
	if out == nil || resp.status == http.StatusNoContent || resp.status == http.StatusNotFound {
		return nil
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return model.NewServerError(serviceName, resp.status, fmt.Sprintf("unreadable %s response", req.op))
	}
	return nil
}
