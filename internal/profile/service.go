package profile

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/logger"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// Gateway is the slice of the API client the profile service drives.
type Gateway interface {
	FetchProfile(ctx context.Context) (*types.UserProfile, error)
	UpdateProfile(ctx context.Context, req types.UpdateProfileRequest) (*types.UserProfile, error)
	ChangePassword(ctx context.Context, req types.ChangePasswordRequest) error
}

// Edits carries the user's pending profile edits in display form. Birth date
// is MM-DD-YYYY; phone may carry mask formatting.
type Edits struct {
	FirstName string
	LastName  string
	BirthDate string
	Phone     string
}

// Service holds the profile snapshot and pushes diff-only updates. Server
// birth dates arrive as YYYY-MM-DD and are normalized to display form on the
// way in, and back to server form on the way out.
type Service struct {
	gateway  Gateway
	validate *validator.Validate
	logg     *logger.Logger

	mu      sync.RWMutex
	current *types.UserProfile
}

// NewService builds the profile service.
func NewService(gw Gateway, logg *logger.Logger) *Service {
	return &Service{gateway: gw, validate: validator.New(), logg: logg}
}

// Refresh replaces the snapshot from the server.
func (s *Service) Refresh(ctx context.Context) error {
	profile, err := s.gateway.FetchProfile(ctx)
	if err != nil {
		return err
	}
	profile.BirthDate = NormalizeBirthDateFromServer(profile.BirthDate)

	s.mu.Lock()
	s.current = profile
	s.mu.Unlock()
	return nil
}

// Current returns a copy of the snapshot, or nil before the first refresh.
func (s *Service) Current() *types.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Reset drops the snapshot, for sign-out.
func (s *Service) Reset() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Save validates the edits, diffs them against the snapshot, and sends only
// the changed fields. Saving with nothing changed is a clean no-op that
// never reaches the network.
func (s *Service) Save(ctx context.Context, edits Edits) error {
	current := s.Current()
	if current == nil {
		return pkgerrors.New(pkgerrors.CodePrecondition, "profile not loaded")
	}

	req, err := s.buildUpdate(*current, edits)
	if err != nil {
		return err
	}
	if req.IsEmpty() {
		return nil
	}

	updated, err := s.gateway.UpdateProfile(ctx, req)
	if err != nil {
		return err
	}
	updated.BirthDate = NormalizeBirthDateFromServer(updated.BirthDate)

	s.mu.Lock()
	s.current = updated
	s.mu.Unlock()
	return nil
}

// ChangePassword validates locally, then rotates the password server-side.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	req := types.ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	if err := s.validate.Struct(req); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "password must be at least 8 characters")
	}
	if current == next {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password must differ from the current one")
	}
	return s.gateway.ChangePassword(ctx, req)
}

func (s *Service) buildUpdate(current types.UserProfile, edits Edits) (types.UpdateProfileRequest, error) {
	var req types.UpdateProfileRequest

	if first := trimmed(edits.FirstName); first != current.FirstName {
		if first == "" {
			return req, pkgerrors.New(pkgerrors.CodeValidation, "first name is required")
		}
		req.FirstName = &first
	}
	if last := trimmed(edits.LastName); last != current.LastName {
		if last == "" {
			return req, pkgerrors.New(pkgerrors.CodeValidation, "last name is required")
		}
		req.LastName = &last
	}

	if birth := trimmed(edits.BirthDate); birth != current.BirthDate {
		if birth != "" && !IsCompleteBirthDate(birth) {
			return req, pkgerrors.New(pkgerrors.CodeValidation, "birth date must be MM-DD-YYYY")
		}
		wire := birth
		if birth != "" {
			converted, err := BirthDateForServer(birth)
			if err != nil {
				return req, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "birth date must be MM-DD-YYYY")
			}
			wire = converted
		}
		req.BirthDate = &wire
	}

	if phone := NormalizePhoneNumber(edits.Phone); phone != NormalizePhoneNumber(current.Phone) {
		if !IsValidPhoneNumber(phone) {
			return req, pkgerrors.New(pkgerrors.CodeValidation, "phone number must be 10 digits")
		}
		req.Phone = &phone
	}

	return req, nil
}

func trimmed(value string) string {
	return strings.TrimSpace(value)
}
