package session

import (
	"net/http"

	"github.com/aguilarsoft/cartsync/api/responses"
	"github.com/aguilarsoft/cartsync/api/validators"
	cartsvc "github.com/aguilarsoft/cartsync/internal/cart"
	pkgerrors "github.com/aguilarsoft/cartsync/pkg/errors"
	"github.com/aguilarsoft/cartsync/pkg/logger"
)

// TokenSink receives the bearer token the remote cart client authenticates
// with for the rest of the session.
type TokenSink interface {
	SetToken(token string)
}

type StartRequest struct {
	Token string `json:"token" validate:"required"`
}

type SessionView struct {
	Authenticated bool `json:"authenticated"`
	Syncing       bool `json:"syncing"`
}

// Start marks the session authenticated. The transition into the
// authenticated state kicks off the login sync in the background.
func Start(store *cartsvc.Store, tokens TokenSink, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		var payload StartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if tokens != nil {
			tokens.SetToken(payload.Token)
		}
		store.SetAuthenticated(r.Context(), true)

		responses.WriteSuccessStatus(w, http.StatusCreated, SessionView{
			Authenticated: store.Authenticated(),
			Syncing:       store.Syncing(),
		})
	}
}

// End drops the session. Whether the local cart survives logout is a
// configuration decision the store applies.
func End(store *cartsvc.Store, tokens TokenSink, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		store.SetAuthenticated(r.Context(), false)
		if tokens != nil {
			tokens.SetToken("")
		}

		responses.WriteSuccess(w, SessionView{
			Authenticated: store.Authenticated(),
			Syncing:       store.Syncing(),
		})
	}
}
