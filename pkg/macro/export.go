package macro

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Kanrog/kanrog.github.io/pkg/errors"
)

// WriteFile writes doc to path atomically through a temp file in the same
// directory. With backup set, an existing file whose content differs is
// first copied to <name>-<timestamp><ext>; the backup path is returned.
func WriteFile(path string, doc Document, backup bool) (string, error) {
	content := []byte(doc.String())

	var backupPath string
	if backup {
		old, err := os.ReadFile(path)
		switch {
		case err == nil && !bytes.Equal(old, content):
			ext := filepath.Ext(path)
			base := strings.TrimSuffix(path, ext)
			backupPath = fmt.Sprintf("%s-%s%s", base, time.Now().Format("20060102_150405"), ext)
			if err := os.WriteFile(backupPath, old, 0o644); err != nil {
				return "", errors.ExportError(backupPath, err)
			}
		case err != nil && !os.IsNotExist(err):
			return "", errors.ExportError(path, err)
		}
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".macros-*.tmp")
	if err != nil {
		return "", errors.ExportError(path, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", errors.ExportError(path, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", errors.ExportError(path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", errors.ExportError(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", errors.ExportError(path, err)
	}
	return backupPath, nil
}
