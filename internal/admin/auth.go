package admin

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// extractBearerToken pulls the token out of an "Authorization: Bearer ..."
// header.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// jwtAuth gates every request behind a valid HMAC-signed (HS256, HS384 or
// HS512) bearer token signed with secret. Unlike the control-plane API's JWTAuth, the admin snapshot
// API has no user identity or role to extract: a validly signed token is
// itself the authorization, since every route it protects is read-only.
func jwtAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, present := extractBearerToken(r)
			if !present {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}
			_, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
