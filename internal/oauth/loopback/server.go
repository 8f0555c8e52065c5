// Package loopback implements the short-lived HTTP listener that captures
// the OAuth redirect on the user's own machine. It binds 127.0.0.1 only,
// accepts exactly one successful capture, and enforces a wall-clock timeout.
package loopback

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wixenmail/wixen/internal/oauth"
	"github.com/wixenmail/wixen/internal/observability/logger"
)

const (
	// Port is the fixed loopback port. It is part of the redirect URI
	// registered with every provider (http://127.0.0.1:49317/oauth/callback),
	// so it cannot change without re-registering the app.
	Port = 49317

	// CallbackPath is the redirect path registered with providers.
	CallbackPath = "/oauth/callback"

	// DefaultTimeout bounds the wait for the user to finish in the browser.
	DefaultTimeout = 120 * time.Second
)

// DefaultAddr is the production listen address. Loopback only: the redirect
// carries the authorization code and must never be reachable from the
// network.
var DefaultAddr = fmt.Sprintf("127.0.0.1:%d", Port)

// RedirectURI is the bit-exact redirect URI for provider app registration.
func RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", Port, CallbackPath)
}

type result struct {
	code string
	err  error
}

// Server is a one-shot redirect capture server. Create with New, Start to
// bind, then Await exactly once. The zero value is not usable.
type Server struct {
	addr          string
	expectedState string
	log           *zap.Logger

	ln      net.Listener
	srv     *http.Server
	results chan result
	once    sync.Once
	closed  sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithAddr overrides the listen address. Tests use "127.0.0.1:0".
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// New prepares a capture server for one authorization attempt.
func New(expectedState string, opts ...Option) *Server {
	s := &Server{
		addr:          DefaultAddr,
		expectedState: expectedState,
		log:           logger.Named("loopback"),
		results:       make(chan result, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and begins serving. It must complete before the
// browser is launched; a fast provider redirect against an unbound socket
// would be refused.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%w: port %s is busy; close any other running Wixen Mail instance and retry: %v",
			oauth.ErrServerBindFailed, s.addr, err)
	}
	s.ln = ln

	r := chi.NewRouter()
	r.Get(CallbackPath, s.handleCallback)
	// Los browsers piden /favicon.ico y otras rutas; nada de eso debe
	// confundir al flujo.
	r.NotFound(s.handleWaiting)
	r.MethodNotAllowed(s.handleWaiting)

	s.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Debug("serve loop ended", logger.Err(err))
		}
	}()

	s.log.Debug("listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// RedirectURIBound returns the redirect URI for the actually bound address.
// In production this equals RedirectURI(); with WithAddr("127.0.0.1:0") it
// reflects the kernel-assigned port.
func (s *Server) RedirectURIBound() string {
	return fmt.Sprintf("http://%s%s", s.ln.Addr().String(), CallbackPath)
}

// Await blocks until one of {code, provider error, state mismatch, timeout,
// cancellation}. The listener is closed (port released) before it returns.
func (s *Server) Await(ctx context.Context, timeout time.Duration) (string, error) {
	defer s.Close()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-s.results:
		return res.code, res.err
	case <-timer.C:
		return "", fmt.Errorf("%w: no authorization redirect within %s", oauth.ErrTimeout, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close shuts the server down and releases the port. Safe to call more than
// once. A short grace period lets the in-flight response page reach the
// browser.
func (s *Server) Close() {
	s.closed.Do(func() {
		if s.srv == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(ctx); err != nil {
			_ = s.srv.Close()
		}
	})
}

// deliver records the attempt outcome. First terminal result wins; a
// successful capture is never overwritten by a later request.
func (s *Server) deliver(code string, err error) {
	s.once.Do(func() {
		s.results <- result{code: code, err: err}
	})
}

func (s *Server) handleWaiting(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Waiting for authorization…\n"))
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errCode := q.Get("error"); errCode != "" {
		desc := q.Get("error_description")
		writeErrorPage(w, errCode, desc)
		s.log.Warn("provider returned an authorization error", zap.String("error", errCode))
		s.deliver("", &oauth.ProviderError{Code: errCode, Description: desc})
		return
	}

	code := q.Get("code")
	if code == "" {
		// Visita sin code ni error (p.ej. prefetch); seguimos esperando.
		s.handleWaiting(w, r)
		return
	}

	if subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(s.expectedState)) != 1 {
		writeMismatchPage(w)
		s.log.Warn("authorization state mismatch")
		s.deliver("", fmt.Errorf("%w: redirect state does not match this attempt", oauth.ErrStateMismatch))
		return
	}

	writeSuccessPage(w)
	s.deliver(code, nil)
}
