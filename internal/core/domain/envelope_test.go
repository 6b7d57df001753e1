package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	env := NewEnvelope(FormData{Name: "Ali", Dependents: 2}, 2, at)

	raw, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(raw, `"timestamp":"2026-03-04T05:06:07.008Z"`) {
		t.Errorf("Encode() = %s, want millisecond UTC timestamp", raw)
	}

	got, dropped, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope() error = %v", err)
	}
	if len(dropped) != 0 {
		t.Errorf("dropped = %v", dropped)
	}
	if got != env {
		t.Errorf("DecodeEnvelope() = %+v, want %+v", got, env)
	}
	if !got.SavedAt().Equal(at) {
		t.Errorf("SavedAt() = %v, want %v", got.SavedAt(), at)
	}
}

func TestDecodeEnvelope_Step(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "missing", raw: `{"formData":{}}`, want: 1},
		{name: "zero", raw: `{"currentStep":0}`, want: 1},
		{name: "negative", raw: `{"currentStep":-2}`, want: 1},
		{name: "too large", raw: `{"currentStep":7}`, want: 3},
		{name: "numeric string", raw: `{"currentStep":"2"}`, want: 2},
		{name: "garbage string", raw: `{"currentStep":"abc"}`, want: 1},
		{name: "boolean", raw: `{"currentStep":true}`, want: 1},
		{name: "null", raw: `{"currentStep":null}`, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _, err := DecodeEnvelope(tt.raw)
			if err != nil {
				t.Fatalf("DecodeEnvelope() error = %v", err)
			}
			if env.CurrentStep != tt.want {
				t.Errorf("CurrentStep = %d, want %d", env.CurrentStep, tt.want)
			}
		})
	}
}

func TestDecodeEnvelope_MergesOverEmpty(t *testing.T) {
	raw := `{"formData":{"name":"Ali","dependents":3,"email":42,"legacy":"x"},"currentStep":2}`
	env, dropped, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope() error = %v", err)
	}
	if env.FormData.Name != "Ali" || env.FormData.Dependents != 3 {
		t.Errorf("FormData = %+v", env.FormData)
	}
	if env.FormData.Email != "" {
		t.Errorf("Email = %q, want ill-typed value dropped", env.FormData.Email)
	}
	if len(dropped) != 1 || dropped[0] != FieldEmail {
		t.Errorf("dropped = %v, want [email]", dropped)
	}
}

func TestDecodeEnvelope_Corrupt(t *testing.T) {
	for _, raw := range []string{"", "{not json", "null", "[1,2]", `"text"`} {
		if _, _, err := DecodeEnvelope(raw); !errors.Is(err, ErrCorruptEnvelope) {
			t.Errorf("DecodeEnvelope(%q) error = %v, want ErrCorruptEnvelope", raw, err)
		}
	}
}

func TestFingerprint(t *testing.T) {
	form := FormData{Name: "Ali"}
	if Fingerprint(form, 1) != Fingerprint(form, 1) {
		t.Error("fingerprint is not stable")
	}
	if Fingerprint(form, 1) == Fingerprint(form, 2) {
		t.Error("fingerprint ignores step")
	}
	if Fingerprint(form, 5) != Fingerprint(form, 3) {
		t.Error("fingerprint should clamp the step")
	}
	if strings.Contains(Fingerprint(form, 1), "timestamp") {
		t.Error("fingerprint includes the timestamp")
	}
}
