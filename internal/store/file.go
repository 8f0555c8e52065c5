package store

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/wixenmail/wixen/internal/oauth"
	"github.com/wixenmail/wixen/internal/observability/logger"
	"github.com/wixenmail/wixen/internal/security/secretbox"
	"github.com/wixenmail/wixen/internal/util/atomicwrite"
)

// FileStore is the warned fallback backend: secretbox-encrypted JSON blobs
// under a user-only directory, written atomically. It exists for setups
// without a usable OS credential manager (containers, some headless *nix).
type FileStore struct {
	afs afero.Fs
	dir string
	box *secretbox.Box
}

// NewFile opens (or initializes) a file-backed token store rooted at dir.
// The encryption key lives next to the blobs with 0600 permissions. That
// protects against other users, not against anything running as this user.
func NewFile(afs afero.Fs, dir string) (*FileStore, error) {
	if err := afs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create token dir: %v", oauth.ErrStorage, err)
	}
	box, err := secretbox.LoadOrCreate(afs, filepath.Join(dir, "store.key"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oauth.ErrStorage, err)
	}
	logger.Named("store").Warn("using the file-backed token store; prefer the OS credential manager",
		logger.String("dir", dir))
	return &FileStore{afs: afs, dir: dir, box: box}, nil
}

// path derives the blob filename. The account id is base64url-encoded: it
// is usually an email and must not introduce path separators.
func (s *FileStore) path(provider, accountID string) string {
	name := provider + "--" + base64.RawURLEncoding.EncodeToString([]byte(accountID)) + ".tok"
	return filepath.Join(s.dir, name)
}

func (s *FileStore) Put(provider, accountID string, ts *oauth.TokenSet) error {
	blob, err := encode(ts)
	if err != nil {
		return err
	}
	sealed, err := s.box.Seal(blob)
	if err != nil {
		return fmt.Errorf("%w: seal token set: %v", oauth.ErrStorage, err)
	}
	if err := atomicwrite.WriteFile(s.afs, s.path(provider, accountID), []byte(sealed), 0o600); err != nil {
		return fmt.Errorf("%w: write token file: %v", oauth.ErrStorage, err)
	}
	return nil
}

func (s *FileStore) Get(provider, accountID string) (*oauth.TokenSet, error) {
	sealed, err := afero.ReadFile(s.afs, s.path(provider, accountID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read token file: %v", oauth.ErrStorage, err)
	}
	blob, err := s.box.Open(string(sealed))
	if err != nil {
		return nil, fmt.Errorf("%w: stored blob fails authentication", oauth.ErrCorruptStore)
	}
	return decode(blob)
}

func (s *FileStore) Delete(provider, accountID string) error {
	err := s.afs.Remove(s.path(provider, accountID))
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("%w: remove token file: %v", oauth.ErrStorage, err)
}
