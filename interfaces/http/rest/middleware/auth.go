package middleware

import (
	"net/http"
	"strings"

	"holdthatthought-backend/pkg/auth"
	"holdthatthought-backend/pkg/common"
	apperrors "holdthatthought-backend/pkg/errors"
)

// Authenticate extracts identity claims from the bearer token and attaches a
// user context. The gateway has already validated the token signature; only
// the claims are parsed here. Requests are rate limited per IP before and per
// user after claim extraction.
func Authenticate(ipLimiter, userLimiter auth.RateLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed, _ := ipLimiter.Allow(r.Context(), getClientIP(r)); !allowed {
				common.RespondAppError(w, apperrors.NewRateLimitError("rate limit exceeded"))
				return
			}

			token := extractToken(r)
			if token == "" {
				common.RespondAppError(w, apperrors.NewUnauthorizedError("missing authorization token"))
				return
			}

			claims, err := auth.ExtractClaims(token)
			if err != nil {
				common.RespondAppError(w, apperrors.NewUnauthorizedError("invalid token"))
				return
			}

			if allowed, _ := userLimiter.Allow(r.Context(), claims.UserID); !allowed {
				common.RespondAppError(w, apperrors.NewRateLimitError("user rate limit exceeded"))
				return
			}

			userCtx := &auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
				Name:   claims.Name,
				Avatar: claims.Avatar,
				Roles:  claims.Roles,
			}

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), userCtx)))
		})
	}
}

// RequireRole gates a route group to users holding any of the given roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				common.RespondAppError(w, apperrors.NewUnauthorizedError("unauthorized"))
				return
			}

			for _, required := range roles {
				for _, role := range user.Roles {
					if role == required {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			common.RespondAppError(w, apperrors.NewForbiddenError("insufficient permissions"))
		})
	}
}

// extractToken pulls the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return authHeader
}

// getClientIP extracts the client IP address
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
