// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/oa-harvest/pkg/types"
)

// MaxFilenameBytes bounds a sanitized filename, extension included.
const MaxFilenameBytes = 200

const maxCollisionSuffix = 1000

// hostileChars are replaced with '_' in filenames.
const hostileChars = `\/*?:"<>|`

// SanitizeFilename replaces filesystem-hostile and control characters with
// '_' and truncates the result to at most limit bytes without splitting a
// UTF-8 sequence.
func SanitizeFilename(s string, limit int) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(hostileChars, r) || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

// PDFFilename builds "<date> - <journal> - <title>.pdf" for w, sanitized and
// bounded to MaxFilenameBytes.
func PDFFilename(w types.WorkRecord) string {
	const ext = ".pdf"
	stem := fmt.Sprintf("%s - %s - %s", w.Published, w.Journal, w.Title)
	stem = SanitizeFilename(stem, MaxFilenameBytes-len(ext))
	if stem == "" {
		stem = "untitled"
	}
	return stem + ext
}

// ReservePath claims path by creating an empty placeholder with O_EXCL. When
// path is taken it tries "name (2).ext", "name (3).ext" and so on. The
// caller renames its file over the returned path.
func ReservePath(path string) (string, error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for i := 1; i <= maxCollisionSuffix; i++ {
		candidate := path
		if i > 1 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		}
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			f.Close()
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("reserving %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", path, maxCollisionSuffix)
}
