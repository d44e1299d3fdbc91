package auth

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is what a validated connect token yields: a client id that is
// stable across reconnects and an optional suggested display name.
type Identity struct {
	ClientID string
	Name     string
}

// Verifier validates connect tokens against a JWKS endpoint derived from
// the auth provider's base URL. The key set is fetched lazily on the
// first verification and cached for the process lifetime.
type Verifier struct {
	baseURL string

	once   sync.Once
	jwks   keyfunc.Keyfunc
	issuer string
	err    error
}

// NewVerifier creates a Verifier. An empty baseURL disables verification:
// every token is rejected and connections proceed anonymously.
func NewVerifier(baseURL string) *Verifier {
	return &Verifier{baseURL: baseURL}
}

func (v *Verifier) init() {
	u, err := url.Parse(v.baseURL)
	if err != nil {
		v.err = fmt.Errorf("invalid auth base URL: %w", err)
		return
	}
	v.issuer = u.Scheme + "://" + u.Host
	jwksURL := v.baseURL + "/.well-known/jwks.json"
	v.jwks, v.err = keyfunc.NewDefault([]string{jwksURL})
}

// Verify validates the token and extracts the identity from its claims.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	if v.baseURL == "" {
		return Identity{}, fmt.Errorf("auth is not configured")
	}
	v.once.Do(v.init)
	if v.err != nil {
		return Identity{}, v.err
	}

	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"EdDSA", "RS256", "ES256"}))
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	id := Identity{
		ClientID: subjectFromClaims(claims),
		Name:     firstNameFromClaims(claims),
	}
	if id.ClientID == "" {
		return Identity{}, fmt.Errorf("token carries no subject")
	}
	return id, nil
}

// subjectFromClaims returns the stable user id ("sub" or "id").
func subjectFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}

// firstNameFromClaims returns the first word of the "name" claim, or "".
func firstNameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(strings.TrimSpace(name))
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
