package benchmark

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/supportform/internal/core/domain"
	"github.com/yndnr/supportform/internal/storage"
	"github.com/yndnr/supportform/internal/storage/memory"
)

var benchNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fullForm returns a completed application whose narrative answers are
// roughly narrativeLen characters long.
func fullForm(narrativeLen int) domain.FormData {
	narrative := strings.Repeat("Rent arrears since the last contract ended. ", narrativeLen/44+1)[:narrativeLen]
	return domain.FormData{
		Name:                    "Fatima Ali",
		NationalID:              "1234567890123",
		DateOfBirth:             "1990-05-17",
		Gender:                  "female",
		Address:                 "12 Palm Street, Block 4",
		City:                    "Dubai",
		State:                   "Dubai",
		Country:                 "ae",
		Phone:                   "+971501234567",
		Email:                   "fatima@example.com",
		MaritalStatus:           "married",
		Dependents:              2,
		EmploymentStatus:        "unemployed",
		MonthlyIncome:           "1500.50",
		HousingStatus:           "rented",
		FinancialSituation:      narrative,
		EmploymentCircumstances: narrative,
		ReasonForApplying:       narrative,
	}
}

// encodedDraft returns a stored envelope for form at step 3.
func encodedDraft(b *testing.B, form domain.FormData) string {
	b.Helper()
	raw, err := domain.NewEnvelope(form, domain.MaxStep, benchNow).Encode()
	if err != nil {
		b.Fatalf("Encode() error = %v", err)
	}
	return raw
}

// backends opens one of each backend kind under b.TempDir.
func backends(b *testing.B) map[string]storage.Backend {
	b.Helper()
	out := map[string]storage.Backend{"memory": memory.New()}

	for _, kind := range []string{storage.KindBadger, storage.KindSQLite} {
		cfg := storage.DefaultConfig(b.TempDir())
		cfg.Kind = kind
		be, err := storage.Open(cfg, discard())
		if err != nil {
			b.Fatalf("Open(%s) error = %v", kind, err)
		}
		out[kind] = be
	}

	sealedInner := memory.New()
	sealed, err := storage.NewSealedBackend(sealedInner, []byte("benchmark passphrase"))
	if err != nil {
		b.Fatal(err)
	}
	out["sealed-memory"] = sealed

	b.Cleanup(func() {
		for _, be := range out {
			be.Close()
		}
	})
	return out
}

var ctx = context.Background()
