package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/bnema/kol-credits/internal/domain"
)

const (
	headerAccountID     = "X-Account-ID"
	headerAuthenticated = "X-Authenticated"
	headerRole          = "X-Role"
	headerTier          = "X-Tier"
)

type contextKey string

const actorKey contextKey = "actor"

// identityMiddleware turns the gateway's identity headers into a domain.Actor. Missing
// headers yield an anonymous free actor; malformed ones are rejected.
func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromHeaders(r.Header)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFromHeaders(h http.Header) (domain.Actor, error) {
	role, err := domain.ParseRole(h.Get(headerRole))
	if err != nil {
		return domain.Actor{}, err
	}
	tier, err := domain.ParseTier(h.Get(headerTier))
	if err != nil {
		return domain.Actor{}, err
	}

	authenticated := false
	if raw := strings.TrimSpace(h.Get(headerAuthenticated)); raw != "" {
		authenticated, err = strconv.ParseBool(raw)
		if err != nil {
			return domain.Actor{}, err
		}
	}

	return domain.Actor{
		AccountID:     domain.AccountID(strings.TrimSpace(h.Get(headerAccountID))),
		Authenticated: authenticated,
		Role:          role,
		Tier:          tier,
	}, nil
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}
