package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// MaxEntrySize bounds the uncompressed size of a single archive entry
const MaxEntrySize = 100 << 20

// ErrEntryTooLarge is returned when an archive entry exceeds MaxEntrySize
var ErrEntryTooLarge = errors.New("archive entry too large")

// ExtractZip extracts every file entry of the archive into dest without directories.
// Entry names are reduced to their sanitized base name; hidden entries and entries
// with no usable name are skipped, and clashing names get a numeric suffix.
func ExtractZip(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
		if strings.HasPrefix(base, ".") || strings.Contains(f.Name, "__MACOSX") {
			continue
		}
		name := SecureFilename(base)
		if name == "" {
			continue
		}
		if err := extractEntry(f, uniquePath(dest, name)); err != nil {
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractEntry(f *zip.File, dst string) error {
	if f.UncompressedSize64 > MaxEntrySize {
		return ErrEntryTooLarge
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(src, MaxEntrySize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxEntrySize {
		err = ErrEntryTooLarge
	}
	return err
}

func uniquePath(dir, name string) string {
	dst := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			return dst
		}
		dst = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
}
