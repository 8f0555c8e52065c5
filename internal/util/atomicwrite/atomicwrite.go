// Package atomicwrite provee un helper para escritura atómica de archivos.
// Es Windows-safe: si rename falla, intenta remove+rename (preserva lo viejo
// si falla). Opera sobre un afero.Fs para que los tests corran en memoria.
package atomicwrite

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// WriteFile escribe data a path de forma atómica sobre el fs dado.
// Pasos: write tmp → Sync → Close → Chmod → Rename (con fallback
// Windows-safe).
//
// En Windows, Rename puede fallar si el destino existe/está bloqueado.
// Si rename falla, intenta remove+rename. Esto preserva el archivo viejo
// si algo sale mal (a diferencia de remove-before-rename que lo destruye).
func WriteFile(afs afero.Fs, path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := afs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(afs, dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()

	// Cleanup en caso de error
	defer func() {
		_ = tmp.Close()
		_ = afs.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}

	// Set perms antes del rename
	_ = afs.Chmod(tmpPath, perm)

	if err := afs.Rename(tmpPath, path); err != nil {
		_ = afs.Remove(path)
		if err2 := afs.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename: %v (after remove: %v)", err, err2)
		}
	}

	return nil
}
