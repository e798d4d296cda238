package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is a verified subject derived from request credentials.
// Derived per-request, never persisted.
type Identity struct {
	ID    string
	Email string
}

type supabaseClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role"` // usually "authenticated" / "anon"
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// tokenParser recovers a raw access token from one credential format.
// Parsers are pure and ordered; the first hit wins.
type tokenParser func(r *http.Request) (string, bool)

// Resolver extracts a verified identity from request credentials.
// It degrades to "no identity" on any parse or validation failure
// rather than surfacing an error.
type Resolver struct {
	secret   string
	issuer   string
	audience string
	parsers  []tokenParser
}

func NewResolver(secret, issuer, audience string) *Resolver {
	return &Resolver{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		parsers: []tokenParser{
			tokenFromBearer,
			tokenFromCookiePair,
			tokenFromCookieBlob,
		},
	}
}

// Configured reports whether a signing secret is present. Requests
// cannot be authenticated without one.
func (r *Resolver) Configured() bool {
	return r.secret != ""
}

// Resolve returns the verified identity for the request, or nil when
// no credential format yields a valid one.
func (r *Resolver) Resolve(req *http.Request) *Identity {
	if r.secret == "" {
		return nil
	}
	for _, parse := range r.parsers {
		raw, ok := parse(req)
		if !ok {
			continue
		}
		if id := r.validate(raw); id != nil {
			return id
		}
	}
	return nil
}

func (r *Resolver) validate(raw string) *Identity {
	claims := &supabaseClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(r.secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || tok == nil || !tok.Valid {
		return nil
	}

	if r.issuer != "" && claims.Issuer != r.issuer {
		return nil
	}

	if r.audience != "" {
		valid := false
		for _, aud := range claims.Audience {
			if aud == r.audience {
				valid = true
				break
			}
		}
		if !valid {
			return nil
		}
	}

	// Upstream libraries have been seen leaking the literal string
	// "undefined" as a subject; a non-UUID subject is no identity.
	if !ValidSubject(claims.Subject) {
		return nil
	}

	return &Identity{ID: claims.Subject, Email: claims.Email}
}

// ValidSubject reports whether s is a well-formed UUID subject.
func ValidSubject(s string) bool {
	if s == "" || s == "undefined" {
		return false
	}
	if _, err := uuid.Parse(s); err != nil {
		return false
	}
	return true
}

func tokenFromBearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return raw, raw != ""
}

// tokenFromCookiePair handles the historical discrete-cookie format:
// sb-access-token / sb-refresh-token.
func tokenFromCookiePair(r *http.Request) (string, bool) {
	c, err := r.Cookie("sb-access-token")
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// tokenFromCookieBlob handles the structured single-cookie format:
// sb-<ref>-auth-token holding a JSON blob (optionally base64-encoded
// with a "base64-" prefix) that carries the access token.
func tokenFromCookieBlob(r *http.Request) (string, bool) {
	for _, c := range r.Cookies() {
		if !strings.HasPrefix(c.Name, "sb-") || !strings.HasSuffix(c.Name, "-auth-token") {
			continue
		}
		if tok, ok := accessTokenFromBlob(c.Value); ok {
			return tok, true
		}
	}
	return "", false
}

func accessTokenFromBlob(val string) (string, bool) {
	if val == "" {
		return "", false
	}
	if strings.HasPrefix(val, "base64-") {
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(val, "base64-"))
		if err != nil {
			return "", false
		}
		val = string(decoded)
	}

	var blob struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal([]byte(val), &blob); err != nil {
		return "", false
	}
	return blob.AccessToken, blob.AccessToken != ""
}
