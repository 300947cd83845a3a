package devserver

import (
	"encoding/json"
	"net/http"

	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/security"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "email and a password of at least 8 characters are required").WithDetails(err.Error()))
		return
	}

	hash, err := security.HashPassword(req.Password, s.cfg)
	if err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password"))
		return
	}

	created, err := s.state.registerUser(req.Email, hash, req.FirstName, req.LastName)
	if err != nil {
		writeError(ctx, s.logg, w, err)
		return
	}

	s.respondWithSession(w, r, created, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "email and password are required"))
		return
	}

	found, ok := s.state.userByEmail(req.Email)
	if !ok {
		writeError(ctx, s.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password"))
		return
	}
	match, err := security.VerifyPassword(req.Password, found.PasswordHash)
	if err != nil || !match {
		writeError(ctx, s.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password"))
		return
	}

	s.respondWithSession(w, r, found, http.StatusOK)
}

func (s *Server) respondWithSession(w http.ResponseWriter, r *http.Request, u *user, status int) {
	ctx := r.Context()

	token, err := mintAccessToken(s.cfg, s.now(), u.ID, u.Email)
	if err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token"))
		return
	}

	writeSuccessStatus(w, status, types.LoginResponse{
		AccessToken:           token,
		Email:                 u.Email,
		Sub:                   u.ID,
		RequiresPasswordReset: u.RequiresPasswordReset,
	})
}
