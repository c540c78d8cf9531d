package bookring

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bookring/bookring/pkg/models"
	"github.com/bookring/bookring/pkg/store"
)

// ErrUnauthorized is returned when no valid bearer credential accompanies
// a request that requires one.
var ErrUnauthorized = errors.New("unauthorized")

// TokenVerifier resolves a bearer token to a user id. Real verification
// (signature checks against an identity provider) is delegated to the
// implementation; the coordinator only needs the resulting identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (models.UserID, error)
}

// DevTokenVerifier treats the bearer token as the user id itself. This
// stands in for a real identity provider in development and tests.
type DevTokenVerifier struct{}

func (DevTokenVerifier) VerifyToken(ctx context.Context, token string) (models.UserID, error) {
	id, err := models.ParseUserID(token)
	if err != nil {
		return models.UserID{}, ErrUnauthorized
	}
	return id, nil
}

// userHandler is a handler that requires an authenticated acting user.
type userHandler func(w http.ResponseWriter, r *http.Request, user *models.User)

// withUser resolves the Authorization bearer token to a full User record
// and rejects the request when it cannot.
func (a *App) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.actingUser(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, user)
	}
}

func (a *App) actingUser(r *http.Request) (*models.User, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, ErrUnauthorized
	}

	id, err := a.verifier.VerifyToken(r.Context(), token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := a.store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
