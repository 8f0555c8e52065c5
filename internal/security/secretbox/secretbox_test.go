package secretbox

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	afs := afero.NewMemMapFs()
	box, err := LoadOrCreate(afs, "/keys/store.key")
	if err != nil {
		t.Fatalf("LoadOrCreate err: %v", err)
	}

	msg := "hola mundo ✓ — secreto"
	ct, err := box.Seal([]byte(msg))
	if err != nil {
		t.Fatalf("Seal err: %v", err)
	}
	pt, err := box.Open(ct)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if string(pt) != msg {
		t.Fatalf("plaintext mismatch: got %q want %q", pt, msg)
	}
}

func TestLoadOrCreate_KeyIsStable(t *testing.T) {
	afs := afero.NewMemMapFs()
	b1, err := LoadOrCreate(afs, "/keys/store.key")
	if err != nil {
		t.Fatalf("first LoadOrCreate: %v", err)
	}
	ct, err := b1.Seal([]byte("persisted"))
	if err != nil {
		t.Fatalf("Seal err: %v", err)
	}

	// una segunda carga lee la misma clave y puede abrir blobs viejos
	b2, err := LoadOrCreate(afs, "/keys/store.key")
	if err != nil {
		t.Fatalf("second LoadOrCreate: %v", err)
	}
	pt, err := b2.Open(ct)
	if err != nil {
		t.Fatalf("Open with reloaded key: %v", err)
	}
	if string(pt) != "persisted" {
		t.Fatalf("plaintext: %q", pt)
	}
}

func TestOpen_DetectsTamper(t *testing.T) {
	afs := afero.NewMemMapFs()
	box, err := LoadOrCreate(afs, "/k")
	if err != nil {
		t.Fatalf("LoadOrCreate err: %v", err)
	}
	ct, err := box.Seal([]byte("top secret"))
	if err != nil {
		t.Fatalf("Seal err: %v", err)
	}

	parts := strings.Split(ct, "|")
	if len(parts) != 2 {
		t.Fatalf("unexpected ct format")
	}
	// corromper un byte del ciphertext (base64 -> bytes -> flip -> base64)
	bs, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatal(err)
	}
	bs[len(bs)/2] ^= 0xFF
	tampered := parts[0] + "|" + base64.StdEncoding.EncodeToString(bs)

	if _, err := box.Open(tampered); err == nil {
		t.Fatal("tampered blob must fail authentication")
	}
}

func TestOpen_RejectsGarbage(t *testing.T) {
	afs := afero.NewMemMapFs()
	box, err := LoadOrCreate(afs, "/k")
	if err != nil {
		t.Fatalf("LoadOrCreate err: %v", err)
	}
	for _, blob := range []string{"", "no-separator", "a|b|c", "!!|!!"} {
		if _, err := box.Open(blob); err == nil {
			t.Fatalf("Open(%q) should fail", blob)
		}
	}
}
