package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// Authorizer 调用方是否为管理员，每个 /api 请求处理前都会检查
type Authorizer interface {
	IsAdmin(ctx context.Context, r *http.Request) bool
}

// AuthorizerFunc 函数形式的 Authorizer
type AuthorizerFunc func(ctx context.Context, r *http.Request) bool

func (f AuthorizerFunc) IsAdmin(ctx context.Context, r *http.Request) bool {
	return f(ctx, r)
}

// TokenAuthorizer 校验 Authorization: Bearer <token>，没有配置 token 时拒绝所有请求
type TokenAuthorizer struct {
	tokens [][]byte
}

func NewTokenAuthorizer(tokens ...string) *TokenAuthorizer {
	a := &TokenAuthorizer{}
	for _, token := range tokens {
		if token = strings.TrimSpace(token); token != "" {
			a.tokens = append(a.tokens, []byte(token))
		}
	}
	return a
}

func (a *TokenAuthorizer) IsAdmin(ctx context.Context, r *http.Request) bool {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	given := []byte(strings.TrimSpace(token))
	for _, expected := range a.tokens {
		if subtle.ConstantTimeCompare(given, expected) == 1 {
			return true
		}
	}
	return false
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authorizer == nil || !s.authorizer.IsAdmin(r.Context(), r) {
			s.write(w, r, http.StatusUnauthorized, errorBody{Error: errorDetail{Kind: "Unauthorized", Message: "admin access required"}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
