package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/professor-ai/rag-service/utils"
	"go.uber.org/zap"
)

// TokenValidator verifies a bearer credential and resolves the identity it
// carries. Credential verification itself is an external collaborator; this
// service only consumes the resolved identity.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*Identity, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// RequireAuth is a middleware that rejects requests without a valid bearer credential
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractToken(r)
		if token == "" {
			m.logger.Warn("missing token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		identity, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx = withResolvedIdentity(ctx, identity)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", identity.Sub))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth resolves the identity when a bearer credential is present but
// lets anonymous requests through. Anonymous retrieval sees the whole corpus
// with no visibility filtering.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withResolvedIdentity(ctx, identity)))
	})
}

// withResolvedIdentity stores the identity and, when the subject parses as a
// UUID, the user ID used for document visibility.
func withResolvedIdentity(ctx context.Context, identity *Identity) context.Context {
	ctx = WithIdentity(ctx, identity)
	if userID, err := uuid.Parse(identity.Sub); err == nil {
		ctx = WithUserID(ctx, &userID)
	}
	return ctx
}

// extractToken pulls the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
