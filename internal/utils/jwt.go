package utils

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var parseJWT = func(tokenStr string, keyFunc jwt.Keyfunc) (*jwt.Token, error) {
	return jwt.Parse(tokenStr, keyFunc)
}

var (
	ErrMissingToken  = errors.New("missing or malformed credentials")
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// AuthenticatedUserID extracts and validates the caller's identity. REST
// clients send "Authorization: Bearer <jwt>"; WebSocket clients pass the
// token as a "token" query parameter since browsers cannot set headers on
// the upgrade request.
func AuthenticatedUserID(r *http.Request, secret string) (uint, error) {
	tokenStr := bearerToken(r)
	if tokenStr == "" {
		tokenStr = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if tokenStr == "" {
		return 0, ErrMissingToken
	}

	token, err := parseJWT(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidClaims
	}
	return userIDFromClaims(claims)
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authz, "Bearer ")
}

func userIDFromClaims(claims jwt.MapClaims) (uint, error) {
	sub, ok := claims["sub"]
	if !ok {
		return 0, ErrInvalidClaims
	}

	switch v := sub.(type) {
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, ErrInvalidClaims
		}
		return uint(n), nil
	case float64:
		// JWT numbers get decoded as float64
		return uint(v), nil
	default:
		return 0, ErrInvalidClaims
	}
}
