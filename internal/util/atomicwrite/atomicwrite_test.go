package atomicwrite

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestWriteFile_CreatesWithContent(t *testing.T) {
	afs := afero.NewMemMapFs()
	if err := WriteFile(afs, "/data/tokens/a.tok", []byte("payload"), 0o600); err != nil {
		t.Fatalf("WriteFile err: %v", err)
	}
	got, err := afero.ReadFile(afs, "/data/tokens/a.tok")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("content: %q", got)
	}
}

func TestWriteFile_OverwritesExisting(t *testing.T) {
	afs := afero.NewMemMapFs()
	if err := WriteFile(afs, "/x/f", []byte("old"), 0o600); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFile(afs, "/x/f", []byte("new"), 0o600); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, _ := afero.ReadFile(afs, "/x/f")
	if string(got) != "new" {
		t.Fatalf("content after overwrite: %q", got)
	}
}

func TestWriteFile_LeavesNoTempFiles(t *testing.T) {
	afs := afero.NewMemMapFs()
	if err := WriteFile(afs, "/x/f", []byte("data"), 0o600); err != nil {
		t.Fatalf("WriteFile err: %v", err)
	}
	entries, err := afero.ReadDir(afs, "/x")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}
