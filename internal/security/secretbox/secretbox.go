// Package secretbox cifra los blobs del token store con fallback a archivo.
// Usa NaCl secretbox (XSalsa20-Poly1305) con una clave local generada una
// sola vez y guardada con permisos de solo-usuario. No da la garantía de un
// credential manager del OS; por eso el fallback a archivo se anuncia con
// warning al activarse.
package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/wixenmail/wixen/internal/util/atomicwrite"
)

const (
	keyLength = 32
	nonceSize = 24
	sep       = "|" // base64(nonce)|base64(ciphertext)
)

// Box cifra y descifra con una clave fija de 32 bytes.
type Box struct {
	key [keyLength]byte
}

// LoadOrCreate carga la clave desde keyPath, generándola (0600) si no
// existe todavía.
func LoadOrCreate(afs afero.Fs, keyPath string) (*Box, error) {
	raw, err := afero.ReadFile(afs, keyPath)
	switch {
	case err == nil:
		k, derr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
		if derr != nil || len(k) != keyLength {
			return nil, fmt.Errorf("store key %s: not a base64 %d-byte key", keyPath, keyLength)
		}
		b := &Box{}
		copy(b.key[:], k)
		return b, nil
	case os.IsNotExist(err):
		b := &Box{}
		if _, err := io.ReadFull(rand.Reader, b.key[:]); err != nil {
			return nil, fmt.Errorf("generate store key: %w", err)
		}
		enc := base64.StdEncoding.EncodeToString(b.key[:])
		if err := atomicwrite.WriteFile(afs, keyPath, []byte(enc+"\n"), 0o600); err != nil {
			return nil, fmt.Errorf("persist store key: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("read store key %s: %w", keyPath, err)
	}
}

// Seal cifra plain y devuelve base64(nonce)|base64(ciphertext).
func (b *Box) Seal(plain []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := secretbox.Seal(nil, plain, &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(nonce[:]) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open recibe base64(nonce)|base64(ciphertext) y devuelve el plaintext.
// Cualquier alteración del blob falla la autenticación.
func (b *Box) Open(blob string) ([]byte, error) {
	parts := strings.Split(blob, sep)
	if len(parts) != 2 {
		return nil, errors.New("formato inválido: esperado base64(nonce)|base64(ciphertext)")
	}
	rawNonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}
	if len(rawNonce) != nonceSize {
		return nil, fmt.Errorf("nonce inválido: esperado %d bytes, obtuvo %d", nonceSize, len(rawNonce))
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], rawNonce)
	plain, ok := secretbox.Open(nil, ct, &nonce, &b.key)
	if !ok {
		return nil, errors.New("secretbox auth/decrypt failed")
	}
	return plain, nil
}
