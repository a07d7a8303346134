// Package openai is a client for the hosted assistants API: assistants, files,
// vector stores, threads, messages and runs, plus a run poller.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultTimeout = 30 * time.Second

	keyCheckTimeout = 10 * time.Second

	betaHeader = "OpenAI-Beta"
	betaValue  = "assistants=v2"
)

// Response log categories, one per remote operation.
const (
	LogFileUpload        = "file_upload"
	LogFileInfo          = "file_info"
	LogVectorStore       = "vector_store"
	LogVectorStoreModify = "vector_store_modify"
	LogAssistant         = "assistant"
	LogAssistantRetrieve = "assistant_retrieve"
	LogAssistantUpdate   = "assistant_update"
	LogAssistantsList    = "assistants_list"
	LogThread            = "thread"
	LogMessageAdd        = "message_add"
	LogMessages          = "messages"
	LogRun               = "run"
	LogRunStatus         = "run_status"
	LogRunList           = "run_list"
	LogRunCancel         = "run_cancel"
	LogDelete            = "delete"
)

// ResponseLog receives every successful raw response body.
type ResponseLog interface {
	Append(category, payload string)
}

// Client issues authenticated requests against the assistants API.
type Client struct {
	baseURL    string
	http       *http.Client
	log        ResponseLog
	beta       string
	maxRetries int
	retryWait  time.Duration
	debug      bool
}

// Option configures a Client during construction in NewClient.
type Option func(*Client) error

func WithBaseURL(u string) Option {
	return func(c *Client) error {
		if u == "" {
			return errors.New("openai: base URL must not be empty")
		}
		c.baseURL = strings.TrimRight(u, "/")
		return nil
	}
}

// WithHTTPClient uses a copy of hc; its transport is wrapped, never mutated.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("openai: http client must not be nil")
		}
		cp := *hc
		c.http = &cp
		return nil
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("openai: timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

func WithResponseLog(l ResponseLog) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// WithBetaHeader overrides the protocol marker; an empty value disables it.
func WithBetaHeader(v string) Option {
	return func(c *Client) error {
		c.beta = v
		return nil
	}
}

// WithMaxRetries retries transport, rate limit and server errors with
// exponential backoff. Zero keeps every request to a single attempt.
func WithMaxRetries(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("openai: max retries must be >= 0")
		}
		c.maxRetries = n
		return nil
	}
}

func WithDebug(enabled bool) Option {
	return func(c *Client) error {
		c.debug = enabled
		return nil
	}
}

// NewClient builds a Client holding its own credentials.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}

	c := &Client{
		baseURL:   DefaultBaseURL,
		http:      &http.Client{Timeout: DefaultTimeout},
		beta:      betaValue,
		retryWait: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if c.debug {
		base = &debugTransport{base: base}
	}
	c.http.Transport = &apiKeyTransport{base: base, apiKey: apiKey}

	return c, nil
}

// request describes one round trip. category is the response log bucket.
type request struct {
	op          string
	method      string
	path        string
	category    string
	payload     []byte
	contentType string
	noBeta      bool
}

func jsonRequest(op, method, path, category string, body interface{}) (request, error) {
	r := request{op: op, method: method, path: path, category: category}
	if body == nil {
		return r, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return r, invalidRequest(op, err.Error())
	}
	r.payload = payload
	return r, nil
}

// do performs r, retrying retryable failures when configured to. Requests
// that create or change a resource are retried only on 429, which the
// service returns before doing any work; any other failure may have come
// after the resource was created.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if c.maxRetries == 0 {
		return c.roundTrip(ctx, r)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryWait
	exp.MaxInterval = 8 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.maxRetries)), ctx)

	return backoff.RetryNotifyWithData(func() ([]byte, error) {
		data, err := c.roundTrip(ctx, r)
		if err != nil && !r.retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return data, err
	}, policy, func(err error, wait time.Duration) {
		retriesTotal.WithLabelValues(r.op).Inc()
		log.Warn().
			Err(err).
			Str("op", r.op).
			Dur("wait", wait).
			Msg("Retrying assistants API request")
	})
}

func (r request) retryable(err error) bool {
	if !IsRetryable(err) {
		return false
	}
	switch r.method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	}
	return IsCategory(err, CategoryRateLimit)
}

func (c *Client) roundTrip(ctx context.Context, r request) ([]byte, error) {
	var body io.Reader
	if r.payload != nil {
		body = bytes.NewReader(r.payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, NewTransportError(r.op, err)
	}
	contentType := r.contentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	if !r.noBeta && c.beta != "" {
		req.Header.Set(betaHeader, c.beta)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(r.op, "transport_error").Inc()
		return nil, NewTransportError(r.op, err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	requestDuration.WithLabelValues(r.op).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		classified := Classify(resp.StatusCode, data, readErr)
		requestsTotal.WithLabelValues(r.op, string(classified.Category)).Inc()
		log.Error().
			Str("op", r.op).
			Int("status", resp.StatusCode).
			Str("category", string(classified.Category)).
			Msg(firstLine(classified.Message))
		return nil, classified
	}
	if readErr != nil {
		requestsTotal.WithLabelValues(r.op, "transport_error").Inc()
		return nil, NewTransportError(r.op, readErr)
	}

	requestsTotal.WithLabelValues(r.op, "ok").Inc()
	if c.log != nil && r.category != "" {
		c.log.Append(r.category, string(data))
	}
	return data, nil
}

func decode[T any](op string, data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, NewProtocolError(op, "malformed response body", err)
	}
	return &v, nil
}

func requireID(op, id string) error {
	if id == "" {
		return NewProtocolError(op, "response has no id", nil)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// CheckKey reports whether the configured key is accepted by the service.
func (c *Client) CheckKey(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, keyCheckTimeout)
	defer cancel()

	_, err := c.do(ctx, request{op: "check key", method: http.MethodGet, path: "/engines", noBeta: true})
	if err != nil {
		log.Warn().Err(err).Msg("API key check failed")
		return false
	}
	return true
}
