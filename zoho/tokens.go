// ABOUTME: OAuth access token management for Zoho services
// ABOUTME: Exchanges the refresh token via golang.org/x/oauth2 and caches tokens per service until near expiry
package zoho

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/harperreed/zohosync/logging"
)

// TokenOptions configures a TokenManager.
type TokenOptions struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string

	HTTPClient *http.Client

	// Cache keeps tokens until Margin before their expiry. When false every
	// AccessToken call performs a refresh exchange.
	Cache  bool
	Margin time.Duration

	Logger logrus.FieldLogger
	Now    func() time.Time
}

// TokenManager hands out bearer tokens per service. It is safe for
// concurrent use.
type TokenManager struct {
	oauth        *oauth2.Config
	refreshToken string
	httpClient   *http.Client
	cache        bool
	margin       time.Duration
	log          logrus.FieldLogger
	now          func() time.Time

	mu     sync.Mutex
	tokens map[Service]*oauth2.Token
}

// NewTokenManager creates a TokenManager for the given credentials.
func NewTokenManager(opts TokenOptions) *TokenManager {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Log
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &TokenManager{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		refreshToken: opts.RefreshToken,
		httpClient:   opts.HTTPClient,
		cache:        opts.Cache,
		margin:       opts.Margin,
		log:          opts.Logger,
		now:          opts.Now,
		tokens:       make(map[Service]*oauth2.Token),
	}
}

// AccessToken returns a bearer token for service, refreshing when the
// cached one is missing or inside the expiry margin.
func (m *TokenManager) AccessToken(ctx context.Context, service Service) (string, error) {
	if m.oauth.ClientID == "" || m.oauth.ClientSecret == "" || m.refreshToken == "" {
		tokenRefreshCounter.WithLabelValues(string(service), "error").Inc()
		return "", &Error{Kind: KindAuth, Service: service, Op: "token", Err: ErrMissingCredentials}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if tok := m.tokens[service]; tok != nil && m.fresh(tok) {
		return tok.AccessToken, nil
	}

	tok, err := m.refresh(ctx, service)
	if err != nil {
		tokenRefreshCounter.WithLabelValues(string(service), "error").Inc()
		m.log.WithFields(logrus.Fields{"service": service, "error": err}).Error("Failed to refresh access token")
		return "", err
	}

	tokenRefreshCounter.WithLabelValues(string(service), "success").Inc()
	m.log.WithField("service", service).Info("Access token refreshed")

	if m.cache && !tok.Expiry.IsZero() {
		m.tokens[service] = tok
	}

	return tok.AccessToken, nil
}

// Invalidate drops the cached token for service.
func (m *TokenManager) Invalidate(service Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, service)
}

func (m *TokenManager) fresh(tok *oauth2.Token) bool {
	if tok.AccessToken == "" || tok.Expiry.IsZero() {
		return false
	}
	return m.now().Add(m.margin).Before(tok.Expiry)
}

func (m *TokenManager) refresh(ctx context.Context, service Service) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)

	src := m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: m.refreshToken})
	tok, err := src.Token()
	if err != nil {
		zerr := &Error{Kind: KindAuth, Service: service, Op: "token", Err: err}
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			zerr.StatusCode = rerr.Response.StatusCode
			zerr.Body = truncate(string(rerr.Body))
		}
		return nil, zerr
	}

	if tok.AccessToken == "" {
		return nil, &Error{Kind: KindAuth, Service: service, Op: "token", Err: errors.New("response missing access_token")}
	}

	return tok, nil
}
