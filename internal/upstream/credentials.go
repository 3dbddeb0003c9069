package upstream

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Credentials is one admin's upstream bearer token. It serves as the
// oauth2.TokenSource of that admin's requests; Set swaps the token in place so
// every bound client sees the refreshed value.
type Credentials struct {
	mu       sync.RWMutex
	token    string
	onChange []func(string)
}

func NewCredentials(token string) *Credentials {
	return &Credentials{token: token}
}

// Token implements oauth2.TokenSource.
func (c *Credentials) Token() (*oauth2.Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: c.token, TokenType: "Bearer", Expiry: TokenExpiry(c.token)}, nil
}

func (c *Credentials) Value() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Set replaces the token and notifies subscribers when it changed.
func (c *Credentials) Set(token string) {
	c.mu.Lock()
	changed := c.token != token
	c.token = token
	hooks := append([]func(string){}, c.onChange...)
	c.mu.Unlock()

	if changed {
		for _, fn := range hooks {
			fn(token)
		}
	}
}

func (c *Credentials) Clear() { c.Set("") }

// OnChange registers fn to run after every token change, including Clear.
func (c *Credentials) OnChange(fn func(token string)) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// TokenExpiry reads the exp claim of an upstream JWT without verifying it.
// The console cannot verify upstream tokens; the value only schedules an
// early refresh. Opaque tokens yield the zero time.
func TokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
