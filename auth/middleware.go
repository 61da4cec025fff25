package auth

import (
	"context"
	"errors"
	"net/http"
	"seibi/httpx"
	"strings"
)

type contextKey string

const claimsKey contextKey = "claims"

// 認証なしで通すAPI
var publicPaths = map[string]bool{
	"/api/auth/login":          true,
	"/api/auth/reset-request":  true,
	"/api/auth/reset-password": true,
}

func shouldSkipAuth(path string) bool {
	return !strings.HasPrefix(path, "/api/") || publicPaths[path]
}

// Middleware は /api/ 以下の要求に Authorization ヘッダーのトークンを求めます。
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		if header == "" {
			httpx.JSONError(w, http.StatusUnauthorized, "ログインが必要です", nil)
			return
		}
		claims, err := s.ValidateToken(header)
		if err != nil {
			msg := "認証に失敗しました"
			if errors.Is(err, ErrTokenExpired) {
				msg = "ログインの有効期限が切れました"
			}
			httpx.JSONError(w, http.StatusUnauthorized, msg, nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// RequireAdmin は管理者以外を 403 で拒否します。Middleware の内側で使います。
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := ClaimsFrom(r.Context())
		if !ok || !c.IsAdmin {
			httpx.JSONError(w, http.StatusForbidden, "管理者権限が必要です", nil)
			return
		}
		next(w, r)
	}
}

func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}
