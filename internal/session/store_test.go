package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coffeeclub/coffeeclub-client/pkg/config"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/storage"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

func openTestStorage(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(context.Background(), config.StorageConfig{
		Path: filepath.Join(t.TempDir(), "device.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mintTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestSignInPersistsAndHydrates(t *testing.T) {
	device := openTestStorage(t)
	ctx := context.Background()

	first := NewStore(device, nil)
	identity := types.Identity{Email: "ada@example.com", Sub: 42}
	if err := first.SignIn(ctx, "token-abc", identity, nil); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !first.Active() || first.Token() != "token-abc" {
		t.Fatalf("expected active session with token, got active=%v token=%q", first.Active(), first.Token())
	}

	// A fresh store over the same device storage must recover the session.
	second := NewStore(device, nil)
	if second.Hydrated() {
		t.Fatal("store should not report hydrated before Hydrate")
	}
	if err := second.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	sess := second.Current()
	if sess == nil {
		t.Fatal("expected hydrated session")
	}
	if sess.Token != "token-abc" || sess.Identity != identity {
		t.Fatalf("hydrated session mismatch: %+v", sess)
	}
	if sess.RequiresPasswordReset {
		t.Fatal("password reset flag should default to false")
	}
}

func TestHydrateWithoutStoredSession(t *testing.T) {
	store := NewStore(openTestStorage(t), nil)
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if store.Active() {
		t.Fatal("no stored session should hydrate to signed-out")
	}
	if !store.Hydrated() {
		t.Fatal("hydrate must mark the store hydrated even when empty")
	}
}

func TestHydrateFallsBackToTokenClaims(t *testing.T) {
	device := openTestStorage(t)
	ctx := context.Background()

	token := mintTestToken(t, jwt.MapClaims{
		"email": "grace@example.com",
		"sub":   int64(7),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	if err := device.Set(ctx, "userToken", token); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	if err := device.Set(ctx, "userData", "{not json"); err != nil {
		t.Fatalf("seed corrupt identity: %v", err)
	}

	store := NewStore(device, nil)
	if err := store.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	sess := store.Current()
	if sess == nil {
		t.Fatal("expected session from token fallback")
	}
	if sess.Identity.Email != "grace@example.com" || sess.Identity.Sub != 7 {
		t.Fatalf("claims fallback mismatch: %+v", sess.Identity)
	}
}

func TestSignOutClearsEverything(t *testing.T) {
	device := openTestStorage(t)
	ctx := context.Background()

	store := NewStore(device, nil)
	if err := store.SignIn(ctx, "tok", types.Identity{Email: "x@y.z", Sub: 1}, &Options{RequiresPasswordReset: true}); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := store.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if store.Active() {
		t.Fatal("session should be cleared")
	}
	for _, key := range []string{"userToken", "userData", "passwordResetRequired"} {
		if _, ok, _ := device.Get(ctx, key); ok {
			t.Fatalf("key %q should be removed after sign out", key)
		}
	}
}

func TestPasswordResetFlagLifecycle(t *testing.T) {
	device := openTestStorage(t)
	ctx := context.Background()

	store := NewStore(device, nil)
	if err := store.SignIn(ctx, "tok", types.Identity{Email: "x@y.z", Sub: 1}, &Options{RequiresPasswordReset: true}); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if sess := store.Current(); sess == nil || !sess.RequiresPasswordReset {
		t.Fatal("reset flag should be set after forced-reset sign in")
	}
	if flag, ok, _ := device.Get(ctx, "passwordResetRequired"); !ok || flag != "true" {
		t.Fatalf("reset flag should persist, got %q ok=%v", flag, ok)
	}

	if err := store.MarkPasswordResetComplete(ctx); err != nil {
		t.Fatalf("mark reset complete: %v", err)
	}
	if sess := store.Current(); sess == nil || sess.RequiresPasswordReset {
		t.Fatal("reset flag should clear in memory")
	}
	if _, ok, _ := device.Get(ctx, "passwordResetRequired"); ok {
		t.Fatal("reset flag should clear on device")
	}

	// Re-hydrating must not resurrect the flag.
	fresh := NewStore(device, nil)
	if err := fresh.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if sess := fresh.Current(); sess == nil || sess.RequiresPasswordReset {
		t.Fatal("cleared reset flag should stay cleared across hydration")
	}
}

func TestSignInRejectsEmptyToken(t *testing.T) {
	store := NewStore(openTestStorage(t), nil)
	err := store.SignIn(context.Background(), "", types.Identity{}, nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected %s, got %v", pkgerrors.CodeValidation, err)
	}
}

func TestDecodeIdentityHandlesStringSubject(t *testing.T) {
	token := mintTestToken(t, jwt.MapClaims{"email": "s@example.com", "sub": "19"})
	identity, err := DecodeIdentity(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if identity.Sub != 19 || identity.Email != "s@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestDecodeIdentityRejectsGarbage(t *testing.T) {
	if _, err := DecodeIdentity("not-a-jwt"); err == nil {
		t.Fatal("expected parse error")
	}
}
