package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/idtoken"

	"mailtothings/internal/model"
)

// ErrUnauthenticated is returned when a request cannot be tied to a user.
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier authenticates an add-on request and returns the stable user id
// preferences are stored under.
type Verifier interface {
	Verify(ctx context.Context, bearer string, ev *model.Event) (userID string, err error)
}

// GoogleVerifier checks that the request was signed by Google for this
// deployment and that the user ID token is valid.
type GoogleVerifier struct {
	// Audience is expected in the request's bearer token, usually the
	// endpoint URL. Empty skips the audience check.
	Audience string
	// UserAudience is expected in the user ID token, usually the add-on's
	// OAuth client id. Empty skips the audience check.
	UserAudience string

	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(audience, userAudience string) *GoogleVerifier {
	return &GoogleVerifier{Audience: audience, UserAudience: userAudience, validate: idtoken.Validate}
}

func (g *GoogleVerifier) Verify(ctx context.Context, bearer string, ev *model.Event) (string, error) {
	if bearer == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}
	if _, err := g.validate(ctx, bearer, g.Audience); err != nil {
		return "", fmt.Errorf("%w: system token: %v", ErrUnauthenticated, err)
	}
	userToken := ev.AuthorizationEventObject.UserIDToken
	if userToken == "" {
		return "", fmt.Errorf("%w: missing user id token", ErrUnauthenticated)
	}
	p, err := g.validate(ctx, userToken, g.UserAudience)
	if err != nil {
		return "", fmt.Errorf("%w: user token: %v", ErrUnauthenticated, err)
	}
	if p.Subject == "" {
		return "", fmt.Errorf("%w: user token has no subject", ErrUnauthenticated)
	}
	return p.Subject, nil
}

// InsecureVerifier reads the user id token's subject without checking its
// signature. Requests without a token belong to DevUser.
type InsecureVerifier struct {
	DevUser string
}

func (v InsecureVerifier) Verify(_ context.Context, _ string, ev *model.Event) (string, error) {
	tok := strings.TrimSpace(ev.AuthorizationEventObject.UserIDToken)
	if tok == "" {
		if v.DevUser == "" {
			return "", fmt.Errorf("%w: missing user id token", ErrUnauthenticated)
		}
		return v.DevUser, nil
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return "", fmt.Errorf("%w: parse user token: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: user token has no subject", ErrUnauthenticated)
	}
	return claims.Subject, nil
}
