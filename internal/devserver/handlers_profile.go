package devserver

import (
	"encoding/json"
	"net/http"

	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/security"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

func profilePayload(u *user) types.UserProfile {
	return types.UserProfile{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		BirthDate: u.BirthDate,
		Phone:     u.Phone,
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := userIDFromContext(ctx)

	found, ok := s.state.userByID(userID)
	if !ok {
		writeError(ctx, s.logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
		return
	}
	writeSuccess(w, profilePayload(found))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := userIDFromContext(ctx)

	var req types.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
		return
	}
	if req.IsEmpty() {
		writeError(ctx, s.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no profile fields provided"))
		return
	}

	updated, err := s.state.updateUser(userID, func(u *user) {
		if req.FirstName != nil {
			u.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			u.LastName = *req.LastName
		}
		if req.BirthDate != nil {
			u.BirthDate = *req.BirthDate
		}
		if req.Phone != nil {
			u.Phone = *req.Phone
		}
	})
	if err != nil {
		writeError(ctx, s.logg, w, err)
		return
	}
	writeSuccess(w, profilePayload(updated))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := userIDFromContext(ctx)

	var req types.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "new password must be at least 8 characters"))
		return
	}

	found, ok := s.state.userByID(userID)
	if !ok {
		writeError(ctx, s.logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
		return
	}
	match, err := security.VerifyPassword(req.CurrentPassword, found.PasswordHash)
	if err != nil || !match {
		writeError(ctx, s.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect"))
		return
	}

	hash, err := security.HashPassword(req.NewPassword, s.cfg)
	if err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password"))
		return
	}
	if _, err := s.state.updateUser(userID, func(u *user) {
		u.PasswordHash = hash
		u.RequiresPasswordReset = false
	}); err != nil {
		writeError(ctx, s.logg, w, err)
		return
	}

	writeSuccess(w, map[string]string{"status": "updated"})
}
