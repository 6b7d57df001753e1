package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func leafCN(t *testing.T, k *Keypair) string {
	t.Helper()
	cert, err := k.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatal(err)
	}
	return leaf.Subject.CommonName
}

func TestLoadKeypair(t *testing.T) {
	certFile, keyFile := writeKeypair(t, t.TempDir(), "api.local")

	k, err := LoadKeypair(certFile, keyFile, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("LoadKeypair() error = %v", err)
	}
	defer k.Stop()

	if got := leafCN(t, k); got != "api.local" {
		t.Errorf("CN = %q, want api.local", got)
	}
	cfg := k.ServerTLSConfig()
	if cfg.GetCertificate == nil || cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("ServerTLSConfig() = %+v", cfg)
	}
}

func TestLoadKeypair_Missing(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadKeypair(filepath.Join(dir, "a.crt"), filepath.Join(dir, "a.key"))
	if err == nil {
		t.Fatal("LoadKeypair() should fail for missing files")
	}
}

func TestKeypair_FailedReloadKeepsPrevious(t *testing.T) {
	certFile, keyFile := writeKeypair(t, t.TempDir(), "first.local")
	k, err := LoadKeypair(certFile, keyFile, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	defer k.Stop()

	if err := os.WriteFile(certFile, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := k.reload(); err == nil {
		t.Fatal("reload() should fail on a broken certificate")
	}
	if got := leafCN(t, k); got != "first.local" {
		t.Errorf("CN = %q, want first.local", got)
	}
	if k.Loads() != 1 {
		t.Errorf("Loads() = %d, want 1", k.Loads())
	}
}

func TestKeypair_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeypair(t, dir, "first.local")
	k, err := LoadKeypair(certFile, keyFile,
		WithLogger(quietLogger()),
		WithReloadDelay(20*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer k.Stop()
	if err := k.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	writeKeypair(t, dir, "second.local")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if leafCN(t, k) == "second.local" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("certificate not reloaded, CN = %q", leafCN(t, k))
}

func TestKeypair_StopIdempotent(t *testing.T) {
	certFile, keyFile := writeKeypair(t, t.TempDir(), "api.local")
	k, err := LoadKeypair(certFile, keyFile, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if err := k.Stop(); err != nil {
		t.Errorf("Stop() before Watch error = %v", err)
	}
	if err := k.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
