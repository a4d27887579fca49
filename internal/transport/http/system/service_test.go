package system

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/storage"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/testutil"
	httptransport "github.com/Nihilantropy/ft-transcendence-sub003/internal/transport/http"
)

func newTestServer(t *testing.T, records storage.AnalysisRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, err := NewService(testutil.NewLogger(t), records)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	engine := gin.New()
	if err := svc.Register(context.Background(), engine.Group("/api")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return engine
}

func doStatus(t *testing.T, engine *gin.Engine) (*httptest.ResponseRecorder, httptransport.APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))

	var envelope httptransport.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return rec, envelope
}

func TestStatusReportsAnalysisCounts(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	repo := storage.NewAnalysisRepository(db)

	ctx := context.Background()
	for _, status := range []string{storage.StatusCompleted, storage.StatusCompleted, storage.StatusRejected} {
		if err := repo.Save(ctx, &storage.AnalysisRecord{ClientID: "client-1", Status: status}); err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}

	engine := newTestServer(t, repo)
	rec, envelope := doStatus(t, engine)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !envelope.Success {
		t.Fatalf("envelope should report success, got error %+v", envelope.Error)
	}

	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data has unexpected shape: %T", envelope.Data)
	}
	if _, ok := data["uptime_seconds"]; !ok {
		t.Error("status should include uptime_seconds")
	}

	counts, ok := data["analyses"].(map[string]interface{})
	if !ok {
		t.Fatalf("analyses has unexpected shape: %T", data["analyses"])
	}
	if got := counts[storage.StatusCompleted]; got != float64(2) {
		t.Errorf("completed count = %v, want 2", got)
	}
	if got := counts[storage.StatusRejected]; got != float64(1) {
		t.Errorf("rejected count = %v, want 1", got)
	}
}

func TestStatusToleratesMissingRepository(t *testing.T) {
	engine := newTestServer(t, nil)
	rec, envelope := doStatus(t, engine)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !envelope.Success {
		t.Fatalf("envelope should report success, got error %+v", envelope.Error)
	}

	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data has unexpected shape: %T", envelope.Data)
	}
	if _, ok := data["analyses"]; ok {
		t.Error("analyses should be omitted without a repository")
	}
}
