package httputil

import (
	"errors"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

var (
	ErrNoToken         = errors.New("no token provided")
	ErrMalformedBearer = errors.New("authorization header is not a bearer token")
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	return ParseBearer(r.Header.Get("Authorization"))
}

// ParseBearer strips the "Bearer " prefix from an Authorization header value.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrMalformedBearer
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// BearerHeader formats a token for an outgoing Authorization header.
func BearerHeader(token string) string {
	return bearerPrefix + token
}
