// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// downloadArchive streams a zip of a completed job's output directory.
func (s *Server) downloadArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	dir, err := s.jobs.OutputDir(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		writeError(w, http.StatusNotFound, "Output directory not found")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="oa-harvest-%s.zip"`, id))
	w.WriteHeader(http.StatusOK)

	if err := writeZip(w, dir); err != nil {
		// Headers are gone; the truncated body is all the client will see.
		s.logger.Error().Err(err).Str("job_id", id).Msg("writing archive")
	}
}

// writeZip writes every regular file under dir into a zip stream, with
// paths relative to dir.
func writeZip(w io.Writer, dir string) error {
	zw := zip.NewWriter(w)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate

		dst, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("archiving %s: %w", dir, err)
	}
	return zw.Close()
}
