package transport

import "net/http"

// Authenticator applies authentication to HTTP requests. A public PeriodO
// service needs none; deployments behind an authenticating proxy can supply
// a token.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// AuthFromToken returns BearerAuth for a non-empty token and NoAuth otherwise.
func AuthFromToken(token string) Authenticator {
	if token == "" {
		return &NoAuth{}
	}
	return &BearerAuth{Token: token}
}
