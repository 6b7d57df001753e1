package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// StorageKey is the fixed key under which the draft envelope is stored.
const StorageKey = "socialSupportFormData"

// timestampLayout matches ISO-8601 with millisecond precision in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope is the serialized draft written to durable storage.
type Envelope struct {
	FormData    FormData `json:"formData"`
	CurrentStep int      `json:"currentStep"`
	Timestamp   string   `json:"timestamp"`
}

// NewEnvelope builds an envelope stamped with at.
func NewEnvelope(form FormData, step int, at time.Time) Envelope {
	return Envelope{
		FormData:    form,
		CurrentStep: ClampStep(step),
		Timestamp:   at.UTC().Format(timestampLayout),
	}
}

// Encode serializes the envelope as JSON.
func (e Envelope) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SavedAt parses the envelope timestamp. The zero time is returned when
// the timestamp is missing or malformed.
func (e Envelope) SavedAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Fingerprint identifies the persisted content of a draft, ignoring the
// timestamp, so that unchanged drafts are not rewritten.
func Fingerprint(form FormData, step int) string {
	b, _ := json.Marshal(struct {
		FormData    FormData `json:"formData"`
		CurrentStep int      `json:"currentStep"`
	}{form, ClampStep(step)})
	return string(b)
}

// DecodeEnvelope parses a persisted envelope tolerantly. The step is
// clamped (missing, zero or non-numeric becomes MinStep) and form fields
// are merged over the empty form, so envelopes written before a field
// existed still load. Fields whose stored value has the wrong type are
// skipped and reported in dropped.
//
// ErrCorruptEnvelope is returned when raw is not a JSON object.
func DecodeEnvelope(raw string) (env Envelope, dropped []Field, err error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return Envelope{}, nil, ErrCorruptEnvelope.WithCause(err)
	}
	if top == nil {
		return Envelope{}, nil, ErrCorruptEnvelope.WithDetails("envelope is null")
	}

	env.CurrentStep = decodeStep(top["currentStep"])
	env.FormData, dropped = decodeForm(top["formData"])

	if ts, ok := top["timestamp"]; ok {
		_ = json.Unmarshal(ts, &env.Timestamp)
	}
	return env, dropped, nil
}

func decodeStep(raw json.RawMessage) int {
	if len(raw) == 0 {
		return MinStep
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return MinStep
	}

	var n float64
	switch s := v.(type) {
	case float64:
		n = s
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return MinStep
		}
		n = f
	default:
		return MinStep
	}

	if math.IsNaN(n) || n == 0 {
		return MinStep
	}
	if n > MaxStep {
		return MaxStep
	}
	if n < MinStep {
		return MinStep
	}
	return ClampStep(int(n))
}

func decodeForm(raw json.RawMessage) (FormData, []Field) {
	form := Empty()
	if len(raw) == 0 {
		return form, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return form, nil
	}

	var dropped []Field
	for _, f := range Fields() {
		value, ok := fields[string(f)]
		if !ok {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(value))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			dropped = append(dropped, f)
			continue
		}
		if err := form.set(f, v); err != nil {
			dropped = append(dropped, f)
		}
	}
	return form, dropped
}
