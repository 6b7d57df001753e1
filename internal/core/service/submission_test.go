package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/supportform/internal/core/domain"
)

type fakeTransport struct {
	calls  int
	got    domain.FormData
	result domain.SubmissionResult
	err    error
	block  bool
}

func (f *fakeTransport) Submit(ctx context.Context, form domain.FormData) (domain.SubmissionResult, error) {
	f.calls++
	f.got = form
	if f.block {
		<-ctx.Done()
		return domain.SubmissionResult{}, ctx.Err()
	}
	return f.result, f.err
}

func completePatch() domain.Patch {
	return domain.Patch{
		domain.FieldName:                    "Fatima Ali",
		domain.FieldNationalID:              "1234567890123",
		domain.FieldDateOfBirth:             "1990-05-17",
		domain.FieldGender:                  "female",
		domain.FieldAddress:                 "12 Palm Street, Block 4",
		domain.FieldCity:                    "Dubai",
		domain.FieldState:                   "Dubai",
		domain.FieldCountry:                 "ae",
		domain.FieldPhone:                   "+971501234567",
		domain.FieldEmail:                   "fatima@example.com",
		domain.FieldMaritalStatus:           "married",
		domain.FieldDependents:              2,
		domain.FieldEmploymentStatus:        "unemployed",
		domain.FieldMonthlyIncome:           "1500",
		domain.FieldHousingStatus:           "rented",
		domain.FieldFinancialSituation:      "  Savings are nearly exhausted after job loss.  ",
		domain.FieldEmploymentCircumstances: "Laid off in March, actively applying for roles.",
		domain.FieldReasonForApplying:       "Need support to cover rent and school fees.",
	}
}

func TestSubmissionService_Success(t *testing.T) {
	h := newHarness(t)
	w := h.wizard(t)
	if err := w.UpdateFormData(completePatch()); err != nil {
		t.Fatal(err)
	}
	w.SetCurrentStep(3)

	transport := &fakeTransport{result: domain.SubmissionResult{Success: true, Message: "Application submitted successfully!"}}
	svc := NewSubmissionService(w, transport, time.Second, discardLogger(), h.metrics)

	res, err := svc.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !res.Success || !strings.HasPrefix(res.ApplicationID, domain.ApplicationIDPrefix) {
		t.Errorf("Submit() = %+v", res)
	}
	if transport.got.FinancialSituation != "Savings are nearly exhausted after job loss." {
		t.Errorf("narrative not trimmed: %q", transport.got.FinancialSituation)
	}

	if !w.Snapshot().IsResetting {
		t.Error("successful submission should start a reset")
	}
	h.clock.Advance(DefaultQuiescenceDelay)
	if got := w.Snapshot(); got.CurrentStep != 1 || got.FormData.HasData() || got.IsLoading {
		t.Errorf("state after submission = %+v", got)
	}
}

func TestSubmissionService_KeepsTransportID(t *testing.T) {
	h := newHarness(t)
	w := h.wizard(t)
	_ = w.UpdateFormData(completePatch())

	transport := &fakeTransport{result: domain.SubmissionResult{Success: true, ApplicationID: "APP-42"}}
	res, err := NewSubmissionService(w, transport, 0, discardLogger(), nil).Submit(context.Background())
	if err != nil || res.ApplicationID != "APP-42" {
		t.Errorf("Submit() = %+v, %v", res, err)
	}
}

func TestSubmissionService_Invalid(t *testing.T) {
	h := newHarness(t)
	w := h.wizard(t)
	_ = w.UpdateFormData(domain.Patch{domain.FieldName: "Ana"})

	transport := &fakeTransport{}
	_, err := NewSubmissionService(w, transport, time.Second, discardLogger(), nil).Submit(context.Background())

	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Submit() error = %v, want ErrValidation", err)
	}
	var fields domain.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		t.Error("validation error should carry field errors")
	}
	if transport.calls != 0 {
		t.Error("invalid application reached the transport")
	}
	if s := w.Snapshot(); s.Error != "" || s.IsResetting {
		t.Errorf("validation failure changed wizard state: %+v", s)
	}
}

func TestSubmissionService_TransportFailure(t *testing.T) {
	h := newHarness(t)
	w := h.wizard(t)
	_ = w.UpdateFormData(completePatch())

	transport := &fakeTransport{err: errors.New("connection refused")}
	res, err := NewSubmissionService(w, transport, time.Second, discardLogger(), nil).Submit(context.Background())

	if !errors.Is(err, domain.ErrSubmissionFailed) {
		t.Fatalf("Submit() error = %v, want ErrSubmissionFailed", err)
	}
	if res.Success {
		t.Error("failed submission reported success")
	}
	s := w.Snapshot()
	if s.Error != domain.ErrSubmissionFailed.Message || s.IsLoading {
		t.Errorf("state after failure = %+v", s)
	}
	if !s.FormData.HasData() {
		t.Error("failed submission must keep the draft")
	}
}

func TestSubmissionService_Rejected(t *testing.T) {
	h := newHarness(t)
	w := h.wizard(t)
	_ = w.UpdateFormData(completePatch())

	transport := &fakeTransport{result: domain.SubmissionResult{Success: false, Message: "duplicate application"}}
	res, err := NewSubmissionService(w, transport, time.Second, discardLogger(), nil).Submit(context.Background())

	if !errors.Is(err, domain.ErrSubmissionFailed) || res.Message != "duplicate application" {
		t.Errorf("Submit() = %+v, %v", res, err)
	}
}

func TestSubmissionService_Timeout(t *testing.T) {
	h := newHarness(t)
	w := h.wizard(t)
	_ = w.UpdateFormData(completePatch())

	transport := &fakeTransport{block: true}
	_, err := NewSubmissionService(w, transport, 10*time.Millisecond, discardLogger(), nil).Submit(context.Background())

	if !errors.Is(err, domain.ErrSubmissionTimeout) {
		t.Fatalf("Submit() error = %v, want ErrSubmissionTimeout", err)
	}
	if w.Snapshot().Error != domain.ErrSubmissionTimeout.Message {
		t.Errorf("Error = %q", w.Snapshot().Error)
	}
}
