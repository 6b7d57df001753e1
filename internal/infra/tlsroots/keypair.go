package tlsroots

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay lets a rotation that replaces both files finish
// before the pair is read again.
const DefaultReloadDelay = 250 * time.Millisecond

// Keypair serves a certificate and key loaded from disk and reloads them
// when either file changes. A failed reload keeps the previous pair.
type Keypair struct {
	certFile string
	keyFile  string
	delay    time.Duration
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate

	watcher  *fsnotify.Watcher
	timer    *time.Timer
	timerMu  sync.Mutex
	reloads  int
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// KeypairOption configures a Keypair.
type KeypairOption func(*Keypair)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) KeypairOption {
	return func(k *Keypair) {
		if l != nil {
			k.logger = l
		}
	}
}

// WithReloadDelay sets how long to wait after the last change before
// reloading.
func WithReloadDelay(d time.Duration) KeypairOption {
	return func(k *Keypair) {
		if d > 0 {
			k.delay = d
		}
	}
}

// LoadKeypair reads the pair once. Call Watch to follow later changes.
func LoadKeypair(certFile, keyFile string, opts ...KeypairOption) (*Keypair, error) {
	k := &Keypair{
		certFile: certFile,
		keyFile:  keyFile,
		delay:    DefaultReloadDelay,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(k)
	}
	if err := k.reload(); err != nil {
		return nil, err
	}
	return k, nil
}

// Watch starts following both files. Their directories are watched so
// that rename-into-place rotations are seen.
func (k *Keypair) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	dirs := []string{filepath.Dir(k.certFile)}
	if d := filepath.Dir(k.keyFile); d != dirs[0] {
		dirs = append(dirs, d)
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return errors.Join(fmt.Errorf("tlsroots: watch %s: %w", dir, err), w.Close())
		}
	}
	k.watcher = w

	k.wg.Add(1)
	go k.loop()
	k.logger.Info("watching TLS certificate", "cert_file", k.certFile)
	return nil
}

func (k *Keypair) loop() {
	defer k.wg.Done()
	certBase, keyBase := filepath.Base(k.certFile), filepath.Base(k.keyFile)
	for {
		select {
		case ev, ok := <-k.watcher.Events:
			if !ok {
				return
			}
			base := filepath.Base(ev.Name)
			if base != certBase && base != keyBase {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			k.schedule()
		case err, ok := <-k.watcher.Errors:
			if !ok {
				return
			}
			k.logger.Warn("certificate watcher error", "error", err)
		case <-k.done:
			return
		}
	}
}

// schedule restarts the reload timer so a burst of events reloads once.
func (k *Keypair) schedule() {
	k.timerMu.Lock()
	defer k.timerMu.Unlock()
	if k.timer != nil {
		k.timer.Stop()
	}
	k.timer = time.AfterFunc(k.delay, func() {
		select {
		case <-k.done:
			return
		default:
		}
		if err := k.reload(); err != nil {
			k.logger.Error("certificate reload failed, keeping previous", "error", err)
		}
	})
}

func (k *Keypair) reload() error {
	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	k.mu.Lock()
	k.cert = &cert
	k.reloads++
	n := k.reloads
	k.mu.Unlock()
	if n > 1 {
		k.logger.Info("certificate reloaded", "cert_file", k.certFile)
	}
	return nil
}

// Loads returns how many times the pair has been read successfully.
func (k *Keypair) Loads() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.reloads
}

// GetCertificate implements tls.Config.GetCertificate.
func (k *Keypair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cert, nil
}

// ServerTLSConfig returns a server config that always presents the
// current pair.
func (k *Keypair) ServerTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: k.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// Stop ends watching. It is safe to call more than once and before Watch.
func (k *Keypair) Stop() error {
	var err error
	k.stopOnce.Do(func() {
		close(k.done)
		k.timerMu.Lock()
		if k.timer != nil {
			k.timer.Stop()
		}
		k.timerMu.Unlock()
		if k.watcher != nil {
			err = k.watcher.Close()
		}
		k.wg.Wait()
	})
	return err
}
