// ABOUTME: Authenticated HTTP client for the Zoho CRM, Books, and Analytics APIs
// ABOUTME: Resolves service URLs, attaches bearer tokens, rate limits, and decodes JSON responses
package zoho

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/harperreed/zohosync/logging"
)

const (
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 512
)

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// Call describes one API request.
type Call struct {
	Service Service
	Path    string
	Method  string
	Query   url.Values
	Body    any
}

// Tokens supplies bearer tokens. TokenManager implements it.
type Tokens interface {
	AccessToken(ctx context.Context, service Service) (string, error)
	Invalidate(service Service)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	Endpoints  Endpoints
	HTTPClient *http.Client
	Timeout    time.Duration

	// RateLimit is requests per second across all services. Zero disables
	// limiting.
	RateLimit float64
	RateBurst int

	Logger logrus.FieldLogger
}

// Client performs authenticated Zoho API calls.
type Client struct {
	tokens    Tokens
	endpoints Endpoints
	http      *http.Client
	limiter   *rate.Limiter
	log       logrus.FieldLogger
}

// NewClient creates a Client that obtains tokens from tokens.
func NewClient(tokens Tokens, opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Log
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		tokens:    tokens,
		endpoints: opts.Endpoints,
		http:      opts.HTTPClient,
		limiter:   limiter,
		log:       opts.Logger,
	}
}

// Do executes call and decodes a 200 or 201 response body into out. out may
// be nil to discard the body. Any other status is a KindUpstream error; a 401
// also drops the cached token for the service.
func (c *Client) Do(ctx context.Context, call Call, out any) error {
	method := strings.ToUpper(call.Method)
	if method == "" {
		method = http.MethodGet
	}
	if !supportedMethods[method] {
		return &Error{Kind: KindInvalidCall, Service: call.Service, Op: call.Method, Err: fmt.Errorf("%w: %s", ErrUnsupportedMethod, call.Method)}
	}

	endpoint, err := c.endpoints.URL(call.Service, call.Path)
	if err != nil {
		return &Error{Kind: KindInvalidCall, Service: call.Service, Op: method, Err: err}
	}
	if len(call.Query) > 0 {
		endpoint += "?" + call.Query.Encode()
	}

	token, err := c.tokens.AccessToken(ctx, call.Service)
	if err != nil {
		return err
	}

	var body io.Reader
	if call.Body != nil && (method == http.MethodPost || method == http.MethodPut) {
		payload, err := json.Marshal(call.Body)
		if err != nil {
			return &Error{Kind: KindInvalidCall, Service: call.Service, Op: method, Err: fmt.Errorf("encode body: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &Error{Kind: KindInvalidCall, Service: call.Service, Op: method, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindUpstream, Service: call.Service, Op: method, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		apiRequestCounter.WithLabelValues(string(call.Service), method, "transport_error").Inc()
		c.log.WithFields(logrus.Fields{"service": call.Service, "path": call.Path, "error": err}).Error("Zoho request failed")
		return &Error{Kind: KindUpstream, Service: call.Service, Op: method, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	apiRequestCounter.WithLabelValues(string(call.Service), method, strconv.Itoa(resp.StatusCode)).Inc()
	apiRequestDuration.WithLabelValues(string(call.Service)).Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindUpstream, Service: call.Service, Op: method, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate(call.Service)
		}
		c.log.WithFields(logrus.Fields{
			"service": call.Service,
			"path":    call.Path,
			"status":  resp.StatusCode,
		}).Warn("Zoho API returned error status")
		return &Error{
			Kind:       KindUpstream,
			Service:    call.Service,
			Op:         method,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(raw)),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindUpstream, Service: call.Service, Op: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// Get is Do with GET and a query.
func (c *Client) Get(ctx context.Context, service Service, path string, query url.Values, out any) error {
	return c.Do(ctx, Call{Service: service, Path: path, Method: http.MethodGet, Query: query}, out)
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
