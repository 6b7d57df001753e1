package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/supportform/internal/core/domain"
	"github.com/yndnr/supportform/internal/core/service"
	"github.com/yndnr/supportform/internal/infra/clock"
	"github.com/yndnr/supportform/internal/storage"
	"github.com/yndnr/supportform/internal/storage/memory"
)

type fakeTransport struct{}

func (fakeTransport) Submit(context.Context, domain.FormData) (domain.SubmissionResult, error) {
	return domain.SubmissionResult{Success: true, Message: "Application submitted successfully!"}, nil
}

type fakeGenerator struct{}

func (fakeGenerator) Complete(_ context.Context, _, user string) (string, error) {
	return "Suggested: " + user, nil
}

type testServer struct {
	clock   *clock.Fake
	wizard  *service.Wizard
	handler *Handler
}

func newTestServer(t *testing.T, withAssist bool) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewFake(time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC))

	w := service.NewWizard(context.Background(), service.WizardDeps{
		Store:  storage.NewStore(memory.New(), storage.WithLogger(logger)),
		Clock:  clk,
		Logger: logger,
	}, service.DefaultWizardConfig())
	t.Cleanup(w.Close)

	deps := Deps{
		Wizard:     w,
		Submission: service.NewSubmissionService(w, fakeTransport{}, time.Second, logger, nil),
		Logger:     logger,
	}
	if withAssist {
		cfg := service.DefaultAssistConfig()
		cfg.MinInterval = 0
		deps.Assist = service.NewAssistService(w, fakeGenerator{}, cfg, logger, nil)
	}
	return &testServer{clock: clk, wizard: w, handler: New(deps)}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Request-ID", "req-test")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, resp
}

// draft decodes the data member of a draft response.
func draft(t *testing.T, resp Response) DraftResponse {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatal(err)
	}
	var d DraftResponse
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatalf("decode draft: %v", err)
	}
	return d
}

func validPatchBody() string {
	return `{
		"name": "Fatima Ali", "nationalId": "1234567890123", "dateOfBirth": "1990-05-17",
		"gender": "female", "address": "12 Palm Street, Block 4", "city": "Dubai",
		"state": "Dubai", "country": "ae", "phone": "+971501234567", "email": "fatima@example.com",
		"maritalStatus": "married", "dependents": 2, "employmentStatus": "unemployed",
		"monthlyIncome": "1500", "housingStatus": "rented",
		"financialSituation": "Savings are nearly exhausted after job loss.",
		"employmentCircumstances": "Laid off in March, actively applying for roles.",
		"reasonForApplying": "Need support to cover rent and school fees."
	}`
}

func TestHandler_Health(t *testing.T) {
	s := newTestServer(t, false)
	rec, resp := s.do(t, http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK || resp.Code != CodeOK {
		t.Fatalf("status = %d, code = %q", rec.Code, resp.Code)
	}
	if resp.RequestID != "req-test" || rec.Header().Get("X-Request-ID") != "req-test" {
		t.Errorf("request id not echoed: %q", resp.RequestID)
	}
	data := resp.Data.(map[string]any)
	if data["status"] != "healthy" || data["assistant"] != false {
		t.Errorf("data = %v", data)
	}
}

func TestHandler_GetDraft(t *testing.T) {
	s := newTestServer(t, false)
	rec, resp := s.do(t, http.MethodGet, "/v1/draft", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	d := draft(t, resp)
	if d.CurrentStep != 1 || d.StepName != "personal" || d.Completion != 0 {
		t.Errorf("draft = %+v", d)
	}
}

func TestHandler_PatchDraft(t *testing.T) {
	s := newTestServer(t, false)

	rec, resp := s.do(t, http.MethodPatch, "/v1/draft", `{"name":"Ana","dependents":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	d := draft(t, resp)
	if d.FormData.Name != "Ana" || d.FormData.Dependents != 3 || d.Completion == 0 {
		t.Errorf("draft = %+v", d)
	}

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"unknown field", `{"favouriteColour":"blue"}`, domain.ErrInvalidPatch.Code},
		{"wrong type", `{"dependents":"many"}`, domain.ErrInvalidPatch.Code},
		{"not json", `{`, CodeBadRequest},
		{"empty", `{}`, CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := s.do(t, http.MethodPatch, "/v1/draft", tt.body)
			if rec.Code != http.StatusBadRequest || resp.Code != tt.wantCode {
				t.Errorf("status = %d, code = %q; want 400 %q", rec.Code, resp.Code, tt.wantCode)
			}
		})
	}

	if s.wizard.Snapshot().FormData.Name != "Ana" {
		t.Error("rejected patch modified the draft")
	}
}

func TestHandler_SetStepClamps(t *testing.T) {
	s := newTestServer(t, false)

	for body, want := range map[string]int{`{"step":2}`: 2, `{"step":9}`: 3, `{"step":-4}`: 1} {
		_, resp := s.do(t, http.MethodPut, "/v1/draft/step", body)
		if got := draft(t, resp).CurrentStep; got != want {
			t.Errorf("PUT step %s = %d, want %d", body, got, want)
		}
	}
}

func TestHandler_NextAndPrevious(t *testing.T) {
	s := newTestServer(t, false)

	rec, resp := s.do(t, http.MethodPost, "/v1/draft/next", "")
	if rec.Code != http.StatusUnprocessableEntity || resp.Code != domain.ErrValidation.Code {
		t.Fatalf("next on empty form: status = %d, code = %q", rec.Code, resp.Code)
	}
	details, ok := resp.Details.([]any)
	if !ok || len(details) == 0 {
		t.Errorf("details = %v, want field errors", resp.Details)
	}

	s.do(t, http.MethodPatch, "/v1/draft", validPatchBody())
	rec, resp = s.do(t, http.MethodPost, "/v1/draft/next", "")
	if rec.Code != http.StatusOK || draft(t, resp).CurrentStep != 2 {
		t.Fatalf("next: status = %d, draft = %+v", rec.Code, draft(t, resp))
	}

	_, resp = s.do(t, http.MethodPost, "/v1/draft/previous", "")
	if draft(t, resp).CurrentStep != 1 {
		t.Errorf("previous: step = %d", draft(t, resp).CurrentStep)
	}
}

func TestHandler_Reset(t *testing.T) {
	s := newTestServer(t, false)
	s.do(t, http.MethodPatch, "/v1/draft", `{"name":"Ana"}`)

	rec, resp := s.do(t, http.MethodPost, "/v1/draft/reset", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if settled := resp.Data.(map[string]any)["settled"]; settled != false {
		t.Errorf("settled = %v", settled)
	}

	_, resp = s.do(t, http.MethodGet, "/v1/draft", "")
	if !draft(t, resp).IsResetting {
		t.Error("draft should report resetting")
	}

	s.clock.Advance(service.DefaultQuiescenceDelay)
	_, resp = s.do(t, http.MethodGet, "/v1/draft", "")
	if d := draft(t, resp); d.FormData.HasData() || d.IsResetting {
		t.Errorf("draft after reset = %+v", d)
	}
}

func TestHandler_ResetWait(t *testing.T) {
	s := newTestServer(t, false)
	s.do(t, http.MethodPatch, "/v1/draft", `{"name":"Ana"}`)

	rec := httptest.NewRecorder()
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/draft/reset?wait=true", nil))
	}()

	deadline := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case <-finished:
			done = true
		case <-deadline:
			t.Fatal("reset with wait never returned")
		default:
			s.clock.Advance(100 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"settled":true`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandler_Submit(t *testing.T) {
	s := newTestServer(t, false)

	rec, resp := s.do(t, http.MethodPost, "/v1/draft/submit", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("submit empty form: status = %d", rec.Code)
	}

	s.do(t, http.MethodPatch, "/v1/draft", validPatchBody())
	rec, resp = s.do(t, http.MethodPost, "/v1/draft/submit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	result := resp.Data.(map[string]any)
	if result["success"] != true || !strings.HasPrefix(result["applicationId"].(string), domain.ApplicationIDPrefix) {
		t.Errorf("result = %v", result)
	}
}

func TestHandler_Assist(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		s := newTestServer(t, false)
		rec, resp := s.do(t, http.MethodPost, "/v1/assist/reasonForApplying", `{"context":"rent"}`)
		if rec.Code != http.StatusServiceUnavailable || resp.Code != domain.ErrAssistUnavailable.Code {
			t.Errorf("status = %d, code = %q", rec.Code, resp.Code)
		}
	})

	s := newTestServer(t, true)

	rec, resp := s.do(t, http.MethodPost, "/v1/assist/reasonForApplying", `{"context":"rent"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	text := resp.Data.(map[string]any)["text"].(string)
	if !strings.Contains(text, "rent") {
		t.Errorf("text = %q", text)
	}

	rec, resp = s.do(t, http.MethodPost, "/v1/assist/email", `{}`)
	if rec.Code != http.StatusBadRequest || resp.Code != domain.ErrAssistField.Code {
		t.Errorf("non-narrative field: status = %d, code = %q", rec.Code, resp.Code)
	}

	body, _ := json.Marshal(ApplyRequest{Text: "I need help with rent."})
	rec, resp = s.do(t, http.MethodPost, "/v1/assist/reasonForApplying/apply", string(body))
	if rec.Code != http.StatusOK || draft(t, resp).FormData.ReasonForApplying != "I need help with rent." {
		t.Errorf("apply: status = %d, draft = %+v", rec.Code, draft(t, resp))
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodDelete, "/v1/draft", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.ErrInvalidPatch.Code, http.StatusBadRequest},
		{domain.ErrValidation.Code, http.StatusUnprocessableEntity},
		{domain.ErrAssistRateLimited.Code, http.StatusTooManyRequests},
		{domain.ErrSubmissionFailed.Code, http.StatusBadGateway},
		{domain.ErrAssistUnavailable.Code, http.StatusServiceUnavailable},
		{domain.ErrSubmissionTimeout.Code, http.StatusGatewayTimeout},
		{domain.ErrStore.Code, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := errorCodeToHTTPStatus(tt.code); got != tt.want {
			t.Errorf("errorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
