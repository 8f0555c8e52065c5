// Package auth orchestrates the OAuth lifecycle per account: the initial
// browser-based authorization (Authorize), the hot path that hands a valid
// bearer token to IMAP/SMTP sessions (GetValidToken), and revocation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wixenmail/wixen/internal/config"
	"github.com/wixenmail/wixen/internal/metrics"
	"github.com/wixenmail/wixen/internal/oauth"
	"github.com/wixenmail/wixen/internal/oauth/browser"
	"github.com/wixenmail/wixen/internal/oauth/exchange"
	"github.com/wixenmail/wixen/internal/oauth/loopback"
	"github.com/wixenmail/wixen/internal/oauth/pkce"
	"github.com/wixenmail/wixen/internal/oauth/provider"
	"github.com/wixenmail/wixen/internal/observability/logger"
	"github.com/wixenmail/wixen/internal/store"
	"github.com/wixenmail/wixen/internal/util"
)

// RefreshSkew is the proactive refresh window: a token expiring within this
// margin is refreshed before use, so an IMAP session never starts with a
// token about to die mid-handshake.
const RefreshSkew = 5 * time.Minute

var (
	// authorizeMu: el puerto loopback es un singleton del proceso; un solo
	// Authorize en vuelo. El que llega segundo falla rápido, sin deadlock.
	authorizeMu sync.Mutex

	// refreshGroup colapsa refreshes concurrentes por (provider, account),
	// incluso entre instancias distintas de Manager para la misma cuenta.
	refreshGroup singleflight.Group

	// tokenCache evita golpear el credential manager del OS en cada mail
	// check. Las entradas expiran antes que el token (expiry − skew).
	tokenCache = gocache.New(5*time.Minute, 10*time.Minute)
)

// Manager owns the token lifecycle for one (provider, account) pair. It
// keeps no durable state of its own; the TokenStore is the single owner.
type Manager struct {
	provider  string
	accountID string
	creds     config.ClientCredentials
	store     store.TokenStore

	exchange        *exchange.Client
	httpClient      *http.Client
	now             func() time.Time
	listenAddr      string
	openBrowser     func(string) error
	redirectTimeout time.Duration
	descriptor      *provider.Descriptor

	log *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient injects the transport used against the token endpoint.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithClock pins the time source for expiry math.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithListenAddr overrides the loopback listen address (tests bind :0).
func WithListenAddr(addr string) Option {
	return func(m *Manager) { m.listenAddr = addr }
}

// WithBrowserOpener replaces the OS browser launch.
func WithBrowserOpener(open func(url string) error) Option {
	return func(m *Manager) { m.openBrowser = open }
}

// WithRedirectTimeout bounds the wait for the authorization redirect.
func WithRedirectTimeout(d time.Duration) Option {
	return func(m *Manager) { m.redirectTimeout = d }
}

// WithDescriptor bypasses the registry lookup. Tests use it to point the
// token endpoint at a stub.
func WithDescriptor(d provider.Descriptor) Option {
	return func(m *Manager) { m.descriptor = &d }
}

// NewManager builds a Manager for one account.
func NewManager(providerName, accountID string, creds config.ClientCredentials, st store.TokenStore, opts ...Option) *Manager {
	m := &Manager{
		provider:        strings.ToLower(strings.TrimSpace(providerName)),
		accountID:       accountID,
		creds:           creds,
		store:           st,
		now:             time.Now,
		listenAddr:      loopback.DefaultAddr,
		openBrowser:     browser.Open,
		redirectTimeout: loopback.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.exchange = exchange.New(m.httpClient, m.now)
	m.log = logger.Named("authmanager").With(
		logger.Provider(m.provider),
		logger.Account(util.MaskEmail(m.accountID)),
	)
	return m
}

// Provider returns the provider name this manager is bound to.
func (m *Manager) Provider() string { return m.provider }

// AccountID returns the account id this manager is bound to.
func (m *Manager) AccountID() string { return m.accountID }

func (m *Manager) key() string {
	return m.provider + "/" + m.accountID
}

func (m *Manager) lookup() (provider.Descriptor, error) {
	if m.descriptor != nil {
		return *m.descriptor, nil
	}
	d, ok := provider.Lookup(m.provider)
	if !ok {
		return provider.Descriptor{}, fmt.Errorf("%w: %q", oauth.ErrUnknownProvider, m.provider)
	}
	return d, nil
}

// Authorize runs the full browser flow: PKCE, loopback capture, code
// exchange, persist. On any failure no partial state is stored. Only one
// Authorize may be in flight per process (the loopback port is shared).
func (m *Manager) Authorize(ctx context.Context) (*oauth.TokenSet, error) {
	desc, err := m.lookup()
	if err != nil {
		return nil, err
	}
	if m.creds.ID == "" {
		return nil, fmt.Errorf("%w: client_id is empty for provider %q", oauth.ErrInvalidConfig, m.provider)
	}

	if !authorizeMu.TryLock() {
		return nil, fmt.Errorf("%w: another authorization is already in progress", oauth.ErrServerBindFailed)
	}
	defer authorizeMu.Unlock()

	flowID := uuid.NewString()
	log := m.log.With(logger.FlowID(flowID))
	ctx = logger.ToContext(ctx, log)

	mat, state, err := pkce.NewAttempt()
	if err != nil {
		return nil, err
	}

	srv := loopback.New(state, loopback.WithAddr(m.listenAddr))
	if err := srv.Start(); err != nil {
		metrics.AuthorizeTotal.WithLabelValues(m.provider, metrics.ResultBindFailed).Inc()
		return nil, err
	}
	defer srv.Close()
	redirectURI := srv.RedirectURIBound()

	authURL, err := oauth.BuildAuthURL(desc.AuthURL, m.creds.ID, redirectURI,
		desc.DefaultScopes, state, mat.Challenge, desc.ExtraAuthParams)
	if err != nil {
		return nil, err
	}

	// El listener ya está aceptando: recién ahora puede salir el browser.
	// Un launch fallido es advisory; el usuario todavía puede abrir la URL
	// a mano y el listener sigue esperando.
	log.Info("starting authorization", logger.Op("authorize"))
	if err := m.openBrowser(authURL); err != nil {
		log.Warn("browser launch failed; deliver the URL to the user manually", logger.Err(err))
	}

	code, err := srv.Await(ctx, m.redirectTimeout)
	if err != nil {
		metrics.AuthorizeTotal.WithLabelValues(m.provider, metricResult(err)).Inc()
		return nil, err
	}

	ts, err := m.exchange.ExchangeCode(ctx, desc.TokenURL, code, m.creds.ID, m.creds.Secret, redirectURI, mat.Verifier)
	if err != nil {
		metrics.AuthorizeTotal.WithLabelValues(m.provider, metricResult(err)).Inc()
		return nil, err
	}

	if err := m.store.Put(m.provider, m.accountID, ts); err != nil {
		metrics.AuthorizeTotal.WithLabelValues(m.provider, metrics.ResultOther).Inc()
		return nil, err
	}
	m.cacheSet(ts)

	metrics.AuthorizeTotal.WithLabelValues(m.provider, metrics.ResultOK).Inc()
	log.Info("authorization complete",
		logger.Scope(ts.Scope),
		logger.Bool("has_refresh_token", ts.RefreshToken != ""))
	return ts, nil
}

// GetValidToken returns a bearer access token for the account, refreshing
// proactively inside the skew window. Concurrent callers observing "needs
// refresh" collapse into a single token-endpoint call.
func (m *Manager) GetValidToken(ctx context.Context) (string, error) {
	if tok, ok := tokenCache.Get(m.key()); ok {
		return tok.(string), nil
	}

	ts, err := m.loadStored()
	if err != nil {
		return "", err
	}

	if ts.Valid(m.now(), RefreshSkew) {
		m.cacheSet(ts)
		return ts.AccessToken, nil
	}

	if ts.RefreshToken == "" {
		return "", fmt.Errorf("%w: access token expired and no refresh token is stored", oauth.ErrReauthorizationRequired)
	}

	tok, err, _ := refreshGroup.Do(m.key(), func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return tok.(string), nil
}

// loadStored reads the persisted TokenSet. A corrupt blob is treated the
// same as "nothing stored": the caller must authorize again.
func (m *Manager) loadStored() (*oauth.TokenSet, error) {
	ts, err := m.store.Get(m.provider, m.accountID)
	if errors.Is(err, oauth.ErrCorruptStore) {
		m.log.Warn("stored token set is corrupt; treating the account as not authorized", logger.Err(err))
		return nil, fmt.Errorf("%w: stored tokens are unreadable", oauth.ErrNotAuthorized)
	}
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, fmt.Errorf("%w: run authorization for this account first", oauth.ErrNotAuthorized)
	}
	return ts, nil
}

// refresh runs inside the singleflight group: exactly one network call per
// key no matter how many callers piled up.
func (m *Manager) refresh(ctx context.Context) (string, error) {
	// Double-check: el ganador anterior pudo haber refrescado mientras
	// esperábamos el turno en el group.
	ts, err := m.loadStored()
	if err != nil {
		return "", err
	}
	if ts.Valid(m.now(), RefreshSkew) {
		m.cacheSet(ts)
		return ts.AccessToken, nil
	}
	if ts.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token is stored", oauth.ErrReauthorizationRequired)
	}

	desc, err := m.lookup()
	if err != nil {
		return "", err
	}

	began := time.Now()
	fresh, err := m.exchange.Refresh(ctx, desc.TokenURL, ts.RefreshToken, m.creds.ID, m.creds.Secret)
	metrics.RefreshLatency.Observe(float64(time.Since(began).Milliseconds()))
	if err != nil {
		var pe *oauth.ProviderError
		if errors.As(err, &pe) && pe.ReauthRequired() {
			// El grant está muerto: limpiar para que la próxima llamada
			// devuelva ReauthorizationRequired en vez de reintentar en loop.
			if delErr := m.store.Delete(m.provider, m.accountID); delErr != nil {
				m.log.Warn("failed to delete dead token set", logger.Err(delErr))
			}
			tokenCache.Delete(m.key())
			metrics.RefreshTotal.WithLabelValues(m.provider, metrics.ResultReauth).Inc()
			m.log.Info("refresh grant rejected; reauthorization required", logger.ProviderCode(pe.Code))
			return "", fmt.Errorf("%w: provider rejected the refresh grant (%s)", oauth.ErrReauthorizationRequired, pe.Code)
		}
		// Transitorio (red, 5xx del provider): el TokenSet almacenado queda
		// intacto.
		metrics.RefreshTotal.WithLabelValues(m.provider, metricResult(err)).Inc()
		return "", err
	}

	// Si el provider no devolvió refresh_token, se arrastra el anterior.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = ts.RefreshToken
	}
	if err := m.store.Put(m.provider, m.accountID, fresh); err != nil {
		metrics.RefreshTotal.WithLabelValues(m.provider, metrics.ResultOther).Inc()
		return "", err
	}
	m.cacheSet(fresh)

	metrics.RefreshTotal.WithLabelValues(m.provider, metrics.ResultOK).Inc()
	m.log.Debug("access token refreshed")
	return fresh.AccessToken, nil
}

// Revoke deletes the stored TokenSet. Provider-side revocation is
// best-effort when the descriptor advertises an endpoint; its failure never
// prevents local deletion. Idempotent.
func (m *Manager) Revoke(ctx context.Context) error {
	ts, err := m.store.Get(m.provider, m.accountID)
	if err != nil && !errors.Is(err, oauth.ErrCorruptStore) {
		return err
	}

	if ts != nil {
		if desc, derr := m.lookup(); derr == nil && desc.RevokeURL != "" {
			if rerr := m.revokeRemote(ctx, desc.RevokeURL, ts); rerr != nil {
				m.log.Warn("provider-side revocation failed; deleting locally anyway", logger.Err(rerr))
			}
		}
	}

	tokenCache.Delete(m.key())
	if err := m.store.Delete(m.provider, m.accountID); err != nil {
		return err
	}
	m.log.Info("account revoked")
	return nil
}

// revokeRemote posts the grant to the provider's revocation endpoint
// (RFC 7009). The refresh token is preferred: revoking it kills the whole
// grant, not just the current access token.
func (m *Manager) revokeRemote(ctx context.Context, revokeURL string, ts *oauth.TokenSet) error {
	token, hint := ts.AccessToken, "access_token"
	if ts.RefreshToken != "" {
		token, hint = ts.RefreshToken, "refresh_token"
	}
	form := url.Values{}
	form.Set("token", token)
	form.Set("token_type_hint", hint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	hc := m.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: revocation request failed", oauth.ErrNetwork)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("revocation endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func (m *Manager) cacheSet(ts *oauth.TokenSet) {
	ttl := 5 * time.Minute
	if ts.ExpiresAt != nil {
		ttl = ts.ExpiresAt.Sub(m.now()) - RefreshSkew
		if ttl <= 0 {
			return
		}
	}
	tokenCache.Set(m.key(), ts.AccessToken, ttl)
}

// metricResult maps an error to a stable metric label.
func metricResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, oauth.ErrTimeout):
		return metrics.ResultTimeout
	case errors.Is(err, oauth.ErrStateMismatch):
		return metrics.ResultStateError
	case errors.Is(err, oauth.ErrServerBindFailed):
		return metrics.ResultBindFailed
	case errors.Is(err, oauth.ErrNetwork):
		return metrics.ResultNetworkError
	default:
		var pe *oauth.ProviderError
		if errors.As(err, &pe) {
			return metrics.ResultProviderErr
		}
		return metrics.ResultOther
	}
}
