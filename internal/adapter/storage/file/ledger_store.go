// Package file persists the ledger as two JSON documents on disk, the layout
// the bot has always used: user_data.json and money_types.json.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"gambling-bot/internal/adapter/storage/document"
	"gambling-bot/internal/core/domain"

	"github.com/spf13/afero"
)

// LedgerStore implements ports.LedgerRepository on an afero filesystem.
//
// Each document is written to a temp file and renamed into place, so a crash
// never leaves a truncated document. The two renames are not atomic together;
// Load reconciles wallets against the registry to cover that window.
type LedgerStore struct {
	mu           sync.Mutex
	fs           afero.Fs
	walletPath   string
	currencyPath string
}

// NewLedgerStore creates a file store. Use afero.NewOsFs() in production.
func NewLedgerStore(fsys afero.Fs, walletPath, currencyPath string) *LedgerStore {
	return &LedgerStore{
		fs:           fsys,
		walletPath:   walletPath,
		currencyPath: currencyPath,
	}
}

// Load reads both documents. Missing files mean a fresh install.
func (s *LedgerStore) Load(_ context.Context) (*domain.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	walletDoc, err := s.read(s.walletPath)
	if err != nil {
		return nil, err
	}
	currencyDoc, err := s.read(s.currencyPath)
	if err != nil {
		return nil, err
	}
	return document.Decode(walletDoc, currencyDoc)
}

// Save writes the currency document first, then the wallet document.
func (s *LedgerStore) Save(_ context.Context, ledger *domain.Ledger) error {
	walletDoc, currencyDoc, err := document.Encode(ledger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(s.currencyPath, currencyDoc); err != nil {
		return err
	}
	return s.write(s.walletPath, walletDoc)
}

// Ping checks that the directory holding the wallet document is reachable.
func (s *LedgerStore) Ping(_ context.Context) error {
	dir := filepath.Dir(s.walletPath)
	info, err := s.fs.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Name returns the dependency name.
func (s *LedgerStore) Name() string {
	return "file"
}

// read returns nil, nil when path does not exist.
func (s *LedgerStore) read(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (s *LedgerStore) write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := s.fs.Chmod(tmpName, 0o644); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
