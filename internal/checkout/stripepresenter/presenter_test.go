package stripepresenter

import (
	"context"
	"testing"

	"github.com/coffeeclub/coffeeclub-client/pkg/config"
)

func TestNewPresenterValidatesKeyAgainstEnv(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		cfg     config.StripeConfig
		wantErr bool
	}{
		{"test env with test key", config.StripeConfig{APIKey: "sk_test_123", Env: "test"}, false},
		{"default env is test", config.StripeConfig{APIKey: "sk_test_123"}, false},
		{"test env with live key", config.StripeConfig{APIKey: "sk_live_123", Env: "test"}, true},
		{"live env with live key", config.StripeConfig{APIKey: "sk_live_123", Env: "live"}, false},
		{"live env with test key", config.StripeConfig{APIKey: "sk_test_123", Env: "live"}, true},
		{"missing key", config.StripeConfig{Env: "test"}, true},
		{"unknown env", config.StripeConfig{APIKey: "sk_test_123", Env: "sandbox"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPresenter(ctx, tc.cfg, nil)
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEnvironmentNormalized(t *testing.T) {
	presenter, err := NewPresenter(context.Background(), config.StripeConfig{
		APIKey: "sk_test_123",
		Env:    " TEST ",
	}, nil)
	if err != nil {
		t.Fatalf("new presenter: %v", err)
	}
	if presenter.Environment() != "test" {
		t.Fatalf("environment = %q, want test", presenter.Environment())
	}
}
