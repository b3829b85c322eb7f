package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aguilarsoft/cartsync/api/responses"
	"github.com/aguilarsoft/cartsync/api/validators"
	cartsvc "github.com/aguilarsoft/cartsync/internal/cart"
	pkgerrors "github.com/aguilarsoft/cartsync/pkg/errors"
	"github.com/aguilarsoft/cartsync/pkg/logger"
)

// CartFetch exposes the current local cart.
func CartFetch(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartAddItem adds a product line or bumps the quantity of an existing one.
func CartAddItem(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.AddItem(r.Context(), toItemInput(payload))
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartView(store))
	}
}

// CartUpdateQuantity sets the quantity for a product line. Zero removes it.
func CartUpdateQuantity(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		productID := chi.URLParam(r, "productID")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		var payload UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.UpdateQuantity(r.Context(), productID, *payload.Quantity)
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartRemoveItem drops a product line. Removing an absent product is a no-op.
func CartRemoveItem(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		productID := chi.URLParam(r, "productID")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		store.RemoveItem(r.Context(), productID)
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartClear empties the cart.
func CartClear(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		store.Clear(r.Context())
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartSync runs a merge-and-reload against the server cart and returns the
// reconciled local state. Sync failures leave the local cart untouched, so
// the response is always the current view.
func CartSync(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		if !store.Authenticated() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required before syncing"))
			return
		}

		store.SyncWithServer(r.Context())
		responses.WriteSuccess(w, newCartView(store))
	}
}
