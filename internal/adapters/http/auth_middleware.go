package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/onecore/docintake/internal/auth"
	"github.com/onecore/docintake/internal/core/domain"
)

type claimsContextKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	if claims, ok := ctx.Value(claimsContextKey{}).(*auth.Claims); ok {
		return claims
	}
	return &auth.Claims{}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireRole authenticates the bearer token and checks the role claim
// before handing off to the endpoint handler.
func (rt *Router) requireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			rt.writeError(w, domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("missing bearer token")))
			return
		}
		claims, err := rt.tokens.Verify(raw)
		if err != nil {
			rt.writeError(w, err)
			return
		}
		if claims.Role != role {
			rt.writeError(w, domain.WrapError(domain.ErrForbidden, "authorize", errors.New("role "+claims.Role+" is not allowed")))
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
		next(w, r.WithContext(ctx))
	}
}
