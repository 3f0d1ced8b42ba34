// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// WalletKey is the context key for the authenticated wallet address.
	WalletKey ContextKey = "wallet_address"
)

// Claims represents JWT claims for a wallet session token.
type Claims struct {
	jwt.RegisteredClaims
	WalletAddress string `json:"wallet_address"`
}

// WalletAuth creates JWT authentication middleware for the mint routes.
// The token's wallet claim identifies the caller. When jwtSecret is empty
// the middleware is a pass-through, leaving the endpoints open.
func WalletAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if jwtSecret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), WalletKey, claims.WalletAddress)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetWalletAddress gets the authenticated wallet address from context.
func GetWalletAddress(ctx context.Context) string {
	if v := ctx.Value(WalletKey); v != nil {
		return v.(string)
	}
	return ""
}
