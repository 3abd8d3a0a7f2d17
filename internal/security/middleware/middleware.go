package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/wardenlink/internal/security"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
	"github.com/aryan0dhankhar/wardenlink/internal/security/auth"
	"github.com/aryan0dhankhar/wardenlink/internal/security/ratelimit"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws so that the first one is outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type userKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user stored by Guard.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok && u != nil
}

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Guard authenticates requests and enforces role requirements.
type Guard struct {
	authn  Authenticator
	authz  *security.Authorizer
	audit  *audit.Logger
	logger *slog.Logger
}

func NewGuard(authn Authenticator, authz *security.Authorizer, auditLog *audit.Logger, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{authn: authn, authz: authz, audit: auditLog, logger: log}
}

// Authenticated rejects requests without a valid bearer token for an
// active account.
func (g *Guard) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractToken(r.Header.Get("Authorization"))
		if err != nil {
			WriteError(w, http.StatusUnauthorized, "Not authorized")
			return
		}
		user, err := g.authn.Authenticate(r.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, domain.ErrForbidden) {
				status = http.StatusForbidden
			} else if !errors.Is(err, domain.ErrUnauthenticated) {
				g.logger.Error("authentication failed", slog.String("error", err.Error()))
				status = http.StatusInternalServerError
			}
			msg := domain.ErrorText(err)
			if msg == "" {
				msg = http.StatusText(status)
			}
			WriteError(w, status, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireRole authenticates the request and admits users holding any of
// roles. Super admins are always admitted.
func (g *Guard) RequireRole(roles ...domain.RoleName) Middleware {
	req := security.AnyRole(roles...)
	return func(next http.Handler) http.Handler {
		return g.Authenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFromContext(r.Context())
			if err := g.authz.Evaluate(security.PrincipalOf(user), req); err != nil {
				g.audit.LogDenied(r.Context(), user.ID, r.URL.Path, domain.ErrorText(err))
				WriteError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// RequestID tags each request with an id and logs its completion.
func RequestID(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" || len(reqID) > 64 {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)
			start := time.Now()

			next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), reqID)))

			log.Info("request completed",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration_ms", time.Since(start)),
			)
		})
	}
}

// Recover turns a panic into a 500.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					log.Error("panic serving request",
						slog.Any("panic", v),
						slog.String("path", r.URL.Path),
						slog.String("request_id", logger.RequestID(r.Context())),
						slog.String("stack", string(debug.Stack())),
					)
					WriteError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit throttles requests per client IP as resolved by proxies. Probes
// and metrics are exempt.
func RateLimit(limiter *ratelimit.Limiter, proxies TrustedProxies, log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/healthz", "/readyz", "/metrics":
				next.ServeHTTP(w, r)
				return
			}
			ip := proxies.ClientIP(r)
			if !limiter.Allow(ip) {
				log.Warn("rate limit exceeded", slog.String("ip", ip), slog.String("path", r.URL.Path))
				w.Header().Set("Retry-After", "1")
				WriteError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS answers preflights and echoes allowed origins.
func CORS(allowed []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if OriginAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OriginAllowed reports whether origin is in allowed. "*" allows any origin.
func OriginAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

type errorBody struct {
	Message string `json:"message"`
}

// WriteError writes {"message": msg} with status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Message: msg})
}
