package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	domainauth "github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/auth"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/testutil"
	httptransport "github.com/Nihilantropy/ft-transcendence-sub003/internal/transport/http"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testutil.NewConfig(t)
	cfg.Server.Token = "test-secret"

	svc, err := NewService(cfg, testutil.NewLogger(t))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	engine := gin.New()
	if err := svc.Register(context.Background(), engine.Group("/api")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return engine
}

func doIssue(t *testing.T, engine *gin.Engine, serverToken, body string) (*httptest.ResponseRecorder, httptransport.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if serverToken != "" {
		req.Header.Set("X-Server-Token", serverToken)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var envelope httptransport.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return rec, envelope
}

func TestIssueRejectsWrongSecret(t *testing.T) {
	engine := newTestServer(t)

	rec, envelope := doIssue(t, engine, "wrong-secret", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if envelope.Success {
		t.Error("envelope should not report success")
	}
	if envelope.Error == nil || envelope.Error.Code != "UNAUTHORIZED" {
		t.Errorf("error = %+v, want code UNAUTHORIZED", envelope.Error)
	}
}

func TestIssueReturnsVerifiableToken(t *testing.T) {
	engine := newTestServer(t)

	rec, envelope := doIssue(t, engine, "test-secret", `{"client_id":"client-42"}`)
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
	if data["client_id"] != "client-42" {
		t.Errorf("client_id = %v, want client-42", data["client_id"])
	}

	signed, _ := data["token"].(string)
	valid, clientID, err := domainauth.NewAuthToken("test-secret").VerifyToken(signed)
	if err != nil || !valid {
		t.Fatalf("issued token does not verify: valid=%v err=%v", valid, err)
	}
	if clientID != "client-42" {
		t.Errorf("token client_id = %q, want client-42", clientID)
	}
}

func TestIssueGeneratesClientID(t *testing.T) {
	engine := newTestServer(t)

	rec, envelope := doIssue(t, engine, "test-secret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data has unexpected shape: %T", envelope.Data)
	}
	generated, _ := data["client_id"].(string)
	if generated == "" {
		t.Fatal("client_id should be generated when the request omits one")
	}

	signed, _ := data["token"].(string)
	valid, clientID, err := domainauth.NewAuthToken("test-secret").VerifyToken(signed)
	if err != nil || !valid {
		t.Fatalf("issued token does not verify: valid=%v err=%v", valid, err)
	}
	if clientID != generated {
		t.Errorf("token client_id = %q, want %q", clientID, generated)
	}
}
