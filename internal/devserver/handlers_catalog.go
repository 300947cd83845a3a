package devserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coffeeclub/coffeeclub-client/pkg/enums"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var category enums.MenuCategory
	if raw := r.URL.Query().Get("category"); raw != "" {
		parsed, err := enums.ParseMenuCategory(raw)
		if err != nil {
			writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown menu category"))
			return
		}
		category = parsed
	}

	writeSuccess(w, s.state.menuItems(category))
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	writeSuccess(w, s.state.cartSnapshot(userID))
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := userIDFromContext(ctx)

	var req types.AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
		return
	}

	snapshot, err := s.state.addCartItem(userID, req)
	if err != nil {
		writeError(ctx, s.logg, w, err)
		return
	}
	writeSuccess(w, snapshot)
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := userIDFromContext(ctx)

	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	if err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart line id"))
		return
	}

	var req types.UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
		return
	}

	snapshot, err := s.state.updateCartItem(userID, lineID, req)
	if err != nil {
		writeError(ctx, s.logg, w, err)
		return
	}
	writeSuccess(w, snapshot)
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := userIDFromContext(ctx)

	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	if err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart line id"))
		return
	}

	snapshot, err := s.state.removeCartItem(userID, lineID)
	if err != nil {
		writeError(ctx, s.logg, w, err)
		return
	}
	writeSuccess(w, snapshot)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	writeSuccess(w, s.state.clearCart(userID))
}
