package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"trailerstock/internal/domain"
	"trailerstock/internal/service"
)

func (a *API) handleOpenCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, a.service.OpenCart(r.Context()))
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.GetCart(r.Context(), chi.URLParam(r, "id"))
	a.writeCart(w, view, err)
}

func (a *API) handleDiscardCart(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DiscardCart(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req domain.CartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.logger, w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.AddToCart(r.Context(), chi.URLParam(r, "id"), req)
	a.writeCart(w, view, err)
}

func (a *API) handleSetCartQuantity(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeError(a.logger, w, http.StatusBadRequest, err)
		return
	}
	var req domain.CartQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.logger, w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.SetCartQuantity(r.Context(), chi.URLParam(r, "id"), productID, req.Qty)
	a.writeCart(w, view, err)
}

func (a *API) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeError(a.logger, w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.RemoveFromCart(r.Context(), chi.URLParam(r, "id"), productID)
	a.writeCart(w, view, err)
}

func (a *API) handleSetCartTier(w http.ResponseWriter, r *http.Request) {
	var req domain.CartTierRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.logger, w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.SetCartTier(r.Context(), chi.URLParam(r, "id"), req.Tier)
	a.writeCart(w, view, err)
}

func (a *API) handleSetCartPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req domain.CartPaymentMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.logger, w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.SetCartPaymentMethod(r.Context(), chi.URLParam(r, "id"), req.PaymentMethod)
	a.writeCart(w, view, err)
}

func (a *API) handleSetCartNotes(w http.ResponseWriter, r *http.Request) {
	var req domain.CartNotesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.logger, w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.SetCartNotes(r.Context(), chi.URLParam(r, "id"), req.Notes)
	a.writeCart(w, view, err)
}

func (a *API) handleSetCartQuoteMode(w http.ResponseWriter, r *http.Request) {
	var req domain.CartQuoteModeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.logger, w, http.StatusBadRequest, err)
		return
	}
	view, err := a.service.SetCartQuoteMode(r.Context(), chi.URLParam(r, "id"), req.Enabled)
	a.writeCart(w, view, err)
}

func (a *API) handleCartSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := a.service.CartSuggestions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sale, err := a.service.FinalizeSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
}

func (a *API) writeCart(w http.ResponseWriter, view service.CartView, err error) {
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
