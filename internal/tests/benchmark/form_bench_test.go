package benchmark

import (
	"fmt"
	"testing"

	"github.com/yndnr/supportform/internal/core/domain"
)

var narrativeSizes = []int{100, 1000, 4000}

// BenchmarkEnvelopeEncode measures serializing a draft for storage.
func BenchmarkEnvelopeEncode(b *testing.B) {
	for _, n := range narrativeSizes {
		b.Run(fmt.Sprintf("narrative_%d", n), func(b *testing.B) {
			env := domain.NewEnvelope(fullForm(n), domain.MaxStep, benchNow)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := env.Encode(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkEnvelopeDecode measures restoring a stored draft.
func BenchmarkEnvelopeDecode(b *testing.B) {
	for _, n := range narrativeSizes {
		b.Run(fmt.Sprintf("narrative_%d", n), func(b *testing.B) {
			raw := encodedDraft(b, fullForm(n))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, _, err := domain.DecodeEnvelope(raw); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkFingerprint measures the duplicate-write check run on every
// change.
func BenchmarkFingerprint(b *testing.B) {
	form := fullForm(1000)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		domain.Fingerprint(form, 2)
	}
}

// BenchmarkApplyPatch measures merging a single answer into the form.
func BenchmarkApplyPatch(b *testing.B) {
	patch := domain.Patch{domain.FieldCity: "Abu Dhabi", domain.FieldDependents: "3"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		form := fullForm(100)
		if err := form.Apply(patch); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkValidateApplication measures validating every step at once.
func BenchmarkValidateApplication(b *testing.B) {
	form := fullForm(800)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if errs := domain.ValidateApplication(form, benchNow); len(errs) > 0 {
			b.Fatalf("unexpected errors: %v", errs)
		}
	}
}
