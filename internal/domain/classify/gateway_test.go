package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainimage "github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/image"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/config"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/errors"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/logging"
)

func testPayload() *domainimage.Payload {
	return &domainimage.Payload{
		Bytes:  []byte{0xFF, 0xD8, 0x01},
		Base64: "/9gB",
		Format: "jpeg",
		Width:  128,
		Height: 128,
	}
}

func newTestGateway(t *testing.T, baseURL string) *Gateway {
	t.Helper()
	logger, err := logging.New(logging.Config{Level: "error"})
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}
	gw, err := NewGateway(
		config.ClassifierConfig{
			BaseURL: baseURL,
			APIKey:  "secret",
			Timeout: 2 * time.Second,
			TopK:    5,
		},
		config.ThresholdConfig{CrossbreedSecondThreshold: 0.05},
		logger,
	)
	if err != nil {
		t.Fatalf("NewGateway error: %v", err)
	}
	return gw
}

func TestCheckContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/content/check" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("missing auth header, got %q", got)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["image"] == "" {
			t.Error("image payload missing from request")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"is_safe":          false,
			"nsfw_probability": 0.97,
		})
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL)
	result, err := gw.CheckContent(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("CheckContent error: %v", err)
	}
	if result.IsSafe {
		t.Error("expected unsafe verdict")
	}
	if result.NSFWProbability != 0.97 {
		t.Errorf("unexpected probability: %f", result.NSFWProbability)
	}
}

func TestDetectSpecies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/species/detect" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"species":    "cat",
			"confidence": 0.91,
			"top_predictions": []map[string]interface{}{
				{"label": "cat", "confidence": 0.91},
				{"label": "dog", "confidence": 0.06},
			},
		})
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL)
	result, err := gw.DetectSpecies(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("DetectSpecies error: %v", err)
	}
	if result.Species != "cat" || result.Confidence != 0.91 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.TopPredictions) != 2 {
		t.Errorf("expected 2 predictions, got %d", len(result.TopPredictions))
	}
}

func TestDetectBreedAppliesHeuristic(t *testing.T) {
	var gotSpecies string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Species string `json:"species"`
			TopK    int    `json:"top_k"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotSpecies = req.Species
		json.NewEncoder(w).Encode(map[string]interface{}{
			"predictions": []map[string]interface{}{
				{"breed": "golden_retriever", "probability": 0.47},
				{"breed": "poodle", "probability": 0.36},
			},
		})
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL)
	analysis, err := gw.DetectBreed(context.Background(), testPayload(), "dog")
	if err != nil {
		t.Fatalf("DetectBreed error: %v", err)
	}
	if gotSpecies != "dog" {
		t.Errorf("species not forwarded, got %q", gotSpecies)
	}
	if !analysis.IsLikelyCrossbreed {
		t.Error("expected crossbreed flag from heuristic")
	}
}

func TestGatewaySurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL)
	_, err := gw.CheckContent(context.Background(), testPayload())
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !errors.IsKind(err, errors.KindClassify) {
		t.Errorf("expected classify kind, got %v", err)
	}
}

func TestGatewaySurfacesUnreachableService(t *testing.T) {
	gw := newTestGateway(t, "http://127.0.0.1:1")
	_, err := gw.DetectSpecies(context.Background(), testPayload())
	if err == nil {
		t.Fatal("expected error for unreachable service")
	}
	if !errors.IsKind(err, errors.KindClassify) {
		t.Errorf("expected classify kind, got %v", err)
	}
}

func TestGatewayHonoursContextCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	gw := newTestGateway(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	if _, err := gw.CheckContent(ctx, testPayload()); err == nil {
		t.Fatal("expected error after cancellation")
	}
}
