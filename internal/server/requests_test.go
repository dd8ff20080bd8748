package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/probaah/probaah/internal/orchestrator"
	"github.com/probaah/probaah/internal/tools"
)

type stubService struct {
	lastText string
	history  []orchestrator.WorkflowResult
	cleared  bool
}

func (s *stubService) ProcessRequest(ctx context.Context, text string, reqContext map[string]string) orchestrator.WorkflowResult {
	s.lastText = text
	result := orchestrator.WorkflowResult{
		Success: true,
		Summary: "Successfully completed validation request using 1 tools.",
	}
	result.Request.Text = text
	s.history = append(s.history, result)
	return result
}

func (s *stubService) GetHistory() []orchestrator.WorkflowResult { return s.history }

func (s *stubService) ClearHistory() {
	s.cleared = true
	s.history = nil
}

func (s *stubService) ToolStatus() []tools.Status {
	return []tools.Status{{Name: "packmol", Available: false, InstallHint: "Install PACKMOL: conda install -c conda-forge packmol"}}
}

func newTestServer(svc WorkflowService) http.Handler {
	e := newEcho()
	h := &RequestsHandler{Service: svc}
	h.Register(e.Group("/api"))
	return e
}

func TestProcessEndpoint(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(svc)

	body := strings.NewReader(`{"text":"validate structure.xyz"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/requests", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastText != "validate structure.xyz" {
		t.Fatalf("expected request text to reach the service, got %q", svc.lastText)
	}
	var result orchestrator.WorkflowResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success in response, got %+v", result)
	}
}

func TestProcessEndpointRejectsEmptyText(t *testing.T) {
	srv := newTestServer(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader(`{"text":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "text is required") {
		t.Fatalf("expected validation error, got %s", rec.Body.String())
	}
}

func TestHistoryEndpoints(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(svc)

	svc.ProcessRequest(context.Background(), "validate a.xyz", nil)
	svc.ProcessRequest(context.Background(), "validate b.xyz", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Fatalf("expected 2 history entries, got %+v", resp)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/history", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !svc.cleared {
		t.Fatal("expected clear to reach the service")
	}
}

func TestToolStatusEndpoint(t *testing.T) {
	srv := newTestServer(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var statuses []tools.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &statuses); err != nil {
		t.Fatalf("decode statuses: %v", err)
	}
	if len(statuses) != 1 || statuses[0].Name != "packmol" {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("expected ok, got %d %q", rec.Code, rec.Body.String())
	}
}
