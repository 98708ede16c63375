// Package auth provides the adapter-local bearer token cache used by
// carriers that exchange long-lived credentials for short-lived tokens.
package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// expirySkew is subtracted from the advertised lifetime so a token is
// refreshed before the carrier actually rejects it.
const expirySkew = 30 * time.Second

// ExchangeFunc performs one credential-for-token exchange against the
// carrier's auth endpoint.
type ExchangeFunc func(ctx context.Context) (token string, expiresIn time.Duration, err error)

// TokenSource caches a bearer token with its absolute expiry instant. The
// cache is private to one adapter instance; concurrent callers sharing the
// instance are collapsed into a single exchange.
type TokenSource struct {
	exchange ExchangeFunc

	mu     sync.RWMutex
	token  string
	expiry time.Time

	group singleflight.Group
	now   func() time.Time
}

// NewTokenSource creates a token source around the given exchange.
func NewTokenSource(exchange ExchangeFunc) *TokenSource {
	return &TokenSource{exchange: exchange, now: time.Now}
}

// Token returns the cached token while now < expiry, re-exchanging
// otherwise. A failed exchange is returned as-is for the adapter to
// classify (an unauthorized exchange maps to invalid credentials).
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := s.cached(); ok {
		return tok, nil
	}

	v, err, _ := s.group.Do("token", func() (any, error) {
		// Another caller may have refreshed while we waited.
		if tok, ok := s.cached(); ok {
			return tok, nil
		}

		tok, expiresIn, err := s.exchange(ctx)
		if err != nil {
			return "", err
		}

		s.mu.Lock()
		s.token = tok
		s.expiry = s.now().Add(expiresIn - expirySkew)
		s.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token, forcing the next Token call to
// re-exchange.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expiry = time.Time{}
	s.mu.Unlock()
}

func (s *TokenSource) cached() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token != "" && s.now().Before(s.expiry) {
		return s.token, true
	}
	return "", false
}
