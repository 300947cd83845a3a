package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coffeeclub/coffeeclub-client/pkg/config"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
)

type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func openWeatherHandler(t *testing.T, calls *int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.URL.Query().Get("appid") == "" {
			t.Error("request missing api key")
		}
		if r.URL.Query().Get("units") != "imperial" {
			t.Errorf("units = %q, want imperial", r.URL.Query().Get("units"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "Portland",
			"weather": []map[string]any{
				{"description": "light rain", "icon": "10d"},
			},
			"main": map[string]any{
				"temp":       52.3,
				"feels_like": 49.8,
				"humidity":   88,
			},
		})
	}
}

func testConfig() config.WeatherConfig {
	return config.WeatherConfig{
		APIKey:         "test-key",
		Units:          "imperial",
		FallbackCoords: "45.52,-122.68",
		CacheTTL:       15 * time.Minute,
	}
}

func TestRefreshFetchesAndCaches(t *testing.T) {
	calls := 0
	server := httptest.NewServer(openWeatherHandler(t, &calls))
	defer server.Close()

	cache := newMemoryCache()
	service := NewService(testConfig(), cache, nil, WithEndpoint(server.URL))

	snapshot, err := service.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if snapshot.LocationName != "Portland" || snapshot.Description != "Light Rain" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if snapshot.Temperature != 52.3 || snapshot.FeelsLike != 49.8 || snapshot.Humidity != 88 {
		t.Fatalf("readings mismatch: %+v", snapshot)
	}
	if _, ok := cache.values[cacheKey]; !ok {
		t.Fatal("snapshot should persist to the device cache")
	}
}

func TestCurrentServesFreshCacheWithoutNetwork(t *testing.T) {
	calls := 0
	server := httptest.NewServer(openWeatherHandler(t, &calls))
	defer server.Close()

	now := time.Now()
	cache := newMemoryCache()
	cached := Snapshot{
		LocationName: "Portland",
		Description:  "Clear Sky",
		Temperature:  70,
		FeelsLike:    70,
		UpdatedAt:    now.Add(-5 * time.Minute),
		Units:        "imperial",
	}
	raw, _ := json.Marshal(cached)
	_ = cache.Set(context.Background(), cacheKey, string(raw))

	service := NewService(testConfig(), cache, nil,
		WithEndpoint(server.URL),
		WithNow(func() time.Time { return now }),
	)

	snapshot, err := service.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if snapshot.Description != "Clear Sky" {
		t.Fatalf("expected cached snapshot, got %+v", snapshot)
	}
	if calls != 0 {
		t.Fatalf("fresh cache must not hit the network, saw %d calls", calls)
	}
}

func TestCurrentRefetchesWhenCacheStale(t *testing.T) {
	calls := 0
	server := httptest.NewServer(openWeatherHandler(t, &calls))
	defer server.Close()

	now := time.Now()
	cache := newMemoryCache()
	stale := Snapshot{
		Description: "Clear Sky",
		UpdatedAt:   now.Add(-16 * time.Minute),
		Units:       "imperial",
	}
	raw, _ := json.Marshal(stale)
	_ = cache.Set(context.Background(), cacheKey, string(raw))

	service := NewService(testConfig(), cache, nil,
		WithEndpoint(server.URL),
		WithNow(func() time.Time { return now }),
	)

	snapshot, err := service.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if calls != 1 {
		t.Fatalf("stale cache should refetch, saw %d calls", calls)
	}
	if snapshot.Description != "Light Rain" {
		t.Fatalf("expected live snapshot, got %+v", snapshot)
	}
}

func TestRefreshRequiresLocationAndKey(t *testing.T) {
	noCoords := testConfig()
	noCoords.FallbackCoords = ""
	service := NewService(noCoords, nil, nil)
	_, err := service.Refresh(context.Background())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("missing coords should fail precondition, got %v", err)
	}

	noKey := testConfig()
	noKey.APIKey = ""
	service = NewService(noKey, nil, nil)
	_, err = service.Refresh(context.Background())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("missing key should fail precondition, got %v", err)
	}
}

func TestRefreshMapsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	service := NewService(testConfig(), nil, nil, WithEndpoint(server.URL))
	_, err := service.Refresh(context.Background())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeServer {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestAssistantPayload(t *testing.T) {
	service := NewService(testConfig(), nil, nil)
	if service.AssistantPayload() != nil {
		t.Fatal("payload should be nil before any snapshot")
	}

	service.install(&Snapshot{
		LocationName: "Portland",
		Description:  "Light Rain",
		Temperature:  52.3,
		FeelsLike:    49.8,
		Units:        "imperial",
		UpdatedAt:    time.Now(),
	})

	payload := service.AssistantPayload()
	if payload == nil || payload.LocationName != "Portland" || payload.Units != "imperial" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
