package profile

import (
	"context"
	"testing"

	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

type stubGateway struct {
	profile     *types.UserProfile
	fetchErr    error
	updates     []types.UpdateProfileRequest
	updateErr   error
	passwords   []types.ChangePasswordRequest
	passwordErr error
}

func (g *stubGateway) FetchProfile(context.Context) (*types.UserProfile, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	copied := *g.profile
	return &copied, nil
}

func (g *stubGateway) UpdateProfile(_ context.Context, req types.UpdateProfileRequest) (*types.UserProfile, error) {
	g.updates = append(g.updates, req)
	if g.updateErr != nil {
		return nil, g.updateErr
	}
	updated := *g.profile
	if req.FirstName != nil {
		updated.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		updated.LastName = *req.LastName
	}
	if req.BirthDate != nil {
		updated.BirthDate = *req.BirthDate
	}
	if req.Phone != nil {
		updated.Phone = *req.Phone
	}
	return &updated, nil
}

func (g *stubGateway) ChangePassword(_ context.Context, req types.ChangePasswordRequest) error {
	g.passwords = append(g.passwords, req)
	return g.passwordErr
}

func seededService(t *testing.T, gw *stubGateway) *Service {
	t.Helper()
	svc := NewService(gw, nil)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return svc
}

func baseProfile() *types.UserProfile {
	return &types.UserProfile{
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		BirthDate: "1990-04-12",
		Phone:     "5558675309",
	}
}

func TestRefreshNormalizesServerBirthDate(t *testing.T) {
	svc := seededService(t, &stubGateway{profile: baseProfile()})
	current := svc.Current()
	if current == nil || current.BirthDate != "04-12-1990" {
		t.Fatalf("birth date should display as MM-DD-YYYY, got %+v", current)
	}
}

func TestSaveSendsOnlyChangedFields(t *testing.T) {
	gw := &stubGateway{profile: baseProfile()}
	svc := seededService(t, gw)

	err := svc.Save(context.Background(), Edits{
		FirstName: "Ada",
		LastName:  "King",
		BirthDate: "04-12-1990",
		Phone:     "(555) 867-5309",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(gw.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(gw.updates))
	}
	req := gw.updates[0]
	if req.LastName == nil || *req.LastName != "King" {
		t.Fatalf("last name should be in the diff: %+v", req)
	}
	if req.FirstName != nil || req.BirthDate != nil || req.Phone != nil {
		t.Fatalf("unchanged fields must stay out of the diff: %+v", req)
	}
	if current := svc.Current(); current.LastName != "King" {
		t.Fatalf("snapshot should adopt the server response, got %+v", current)
	}
}

func TestSaveNoChangesSkipsNetwork(t *testing.T) {
	gw := &stubGateway{profile: baseProfile()}
	svc := seededService(t, gw)

	err := svc.Save(context.Background(), Edits{
		FirstName: "Ada",
		LastName:  "Lovelace",
		BirthDate: "04-12-1990",
		Phone:     "555-867-5309",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(gw.updates) != 0 {
		t.Fatalf("no-change save must not reach the gateway: %+v", gw.updates)
	}
}

func TestSaveConvertsBirthDateForServer(t *testing.T) {
	gw := &stubGateway{profile: baseProfile()}
	svc := seededService(t, gw)

	if err := svc.Save(context.Background(), Edits{
		FirstName: "Ada",
		LastName:  "Lovelace",
		BirthDate: "12-31-1991",
		Phone:     "5558675309",
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(gw.updates) != 1 || gw.updates[0].BirthDate == nil || *gw.updates[0].BirthDate != "1991-12-31" {
		t.Fatalf("birth date should go out as YYYY-MM-DD: %+v", gw.updates)
	}
}

func TestSaveValidation(t *testing.T) {
	gw := &stubGateway{profile: baseProfile()}
	svc := seededService(t, gw)
	ctx := context.Background()

	cases := []struct {
		name  string
		edits Edits
	}{
		{"blank first name", Edits{FirstName: " ", LastName: "Lovelace", BirthDate: "04-12-1990", Phone: "5558675309"}},
		{"partial birth date", Edits{FirstName: "Ada", LastName: "Lovelace", BirthDate: "04-12-19", Phone: "5558675309"}},
		{"short phone", Edits{FirstName: "Ada", LastName: "Lovelace", BirthDate: "04-12-1990", Phone: "555-86"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Save(ctx, tc.edits)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(gw.updates) != 0 {
		t.Fatalf("invalid edits must not reach the gateway: %+v", gw.updates)
	}
}

func TestSaveRequiresLoadedProfile(t *testing.T) {
	svc := NewService(&stubGateway{profile: baseProfile()}, nil)
	err := svc.Save(context.Background(), Edits{FirstName: "Ada"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	gw := &stubGateway{profile: baseProfile()}
	svc := seededService(t, gw)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, "old-password", "new-password"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if len(gw.passwords) != 1 || gw.passwords[0].NewPassword != "new-password" {
		t.Fatalf("unexpected password calls: %+v", gw.passwords)
	}

	err := svc.ChangePassword(ctx, "old-password", "short")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("short password should fail validation, got %v", err)
	}
	err = svc.ChangePassword(ctx, "same-password", "same-password")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("reused password should fail validation, got %v", err)
	}
}
