package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gatehouse/gatepass/internal/domain"
	"github.com/gatehouse/gatepass/internal/repository"
	"github.com/gatehouse/gatepass/internal/service"
	"github.com/gatehouse/gatepass/pkg/config"
	"github.com/gatehouse/gatepass/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type ctxKey string

const (
	ctxUser  ctxKey = "user"
	ctxToken ctxKey = "token"
)

type Handlers struct {
	authService   service.AuthService
	visitService  service.VisitService
	passService   service.PassService
	reportService service.ReportService
	rateLimiter   repository.RateLimiter
	config        *config.Config
}

func New(
	authService service.AuthService,
	visitService service.VisitService,
	passService service.PassService,
	reportService service.ReportService,
	rateLimiter repository.RateLimiter,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		authService:   authService,
		visitService:  visitService,
		passService:   passService,
		reportService: reportService,
		rateLimiter:   rateLimiter,
		config:        cfg,
	}
}

// Authenticate validates the bearer token and loads the current user
// from the store. The role on the loaded user is authoritative, so a
// role change applies to the very next request.
func (h *Handlers) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", "UNAUTHORIZED")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		user, err := h.authService.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, domain.PublicMessage(err), "INVALID_TOKEN")
			return
		}

		ctx := context.WithValue(r.Context(), logger.UserIDKey, user.ID)
		ctx = context.WithValue(ctx, ctxUser, user)
		ctx = context.WithValue(ctx, ctxToken, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only the listed roles through. It runs after
// Authenticate, so the role it sees is the stored one.
func (h *Handlers) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := currentUser(r)
			if user == nil {
				writeError(w, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "Insufficient permissions", "FORBIDDEN")
		})
	}
}

// RateLimit applies a fixed-window limit keyed by client IP.
func (h *Handlers) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "auth:" + getClientIP(r)

		allowed, err := h.rateLimiter.Allow(r.Context(), key, h.config.RateLimit.Requests, h.config.RateLimit.Window)
		if err != nil {
			logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
			// Allow request on error (fail open)
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "RATE_LIMIT_EXCEEDED")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Helper functions

func currentUser(r *http.Request) *domain.User {
	if user, ok := r.Context().Value(ctxUser).(*domain.User); ok {
		return user
	}
	return nil
}

func currentToken(r *http.Request) string {
	if token, ok := r.Context().Value(ctxToken).(string); ok {
		return token
	}
	return ""
}

func urlParamID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	response := map[string]string{
		"error": message,
		"code":  code,
	}
	writeJSON(w, statusCode, response)
}

// writeDomainError maps a failure from the service layer to a status
// code and stable error code. Unexpected failures are logged with their
// cause and surface as a generic message.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	msg := domain.PublicMessage(err)

	switch domain.KindOf(err) {
	case domain.KindValidation:
		writeError(w, http.StatusBadRequest, msg, "INVALID_INPUT")
	case domain.KindAuthentication:
		writeError(w, http.StatusUnauthorized, msg, "UNAUTHORIZED")
	case domain.KindAuthorization:
		writeError(w, http.StatusForbidden, msg, "FORBIDDEN")
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, msg, "NOT_FOUND")
	case domain.KindConflict:
		writeError(w, http.StatusConflict, msg, "CONFLICT")
	case domain.KindState:
		writeError(w, http.StatusConflict, msg, "INVALID_STATE")
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, msg, "INTERNAL_ERROR")
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
