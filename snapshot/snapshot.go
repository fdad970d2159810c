// Copyright (C) 2024  The zombie-bite Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package snapshot archives node databases as gzip compressed tarballs, the
// form node definitions reference them in.
package snapshot

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	vgfs "github.com/zombienet/zombie-bite/libs/fs"
	vgio "github.com/zombienet/zombie-bite/libs/io"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// DataPrefix is the directory node databases are restored under.
const DataPrefix = "data"

var ErrUnsafePath = errors.New("archive entry escapes the destination")

// Create archives every directory and regular file under sourceDir into
// targetFile, with entry names rooted at prefix. The archive is written
// next to the target and renamed into place once complete. It returns the
// compressed size.
func Create(ctx context.Context, sourceDir, targetFile, prefix string) (int64, error) {
	if err := vgfs.EnsureDir(filepath.Dir(targetFile)); err != nil {
		return 0, err
	}
	tmp := targetFile + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create target file %s: %w", targetFile, err)
	}
	defer os.Remove(tmp)

	counter := vgio.NewCountWriter(file)
	zw, err := gzip.NewWriterLevel(counter, gzip.BestSpeed)
	if err != nil {
		file.Close()
		return 0, err
	}

	if err := tarDirectory(ctx, zw, sourceDir, prefix); err != nil {
		file.Close()
		return 0, err
	}
	if err := zw.Close(); err != nil {
		file.Close()
		return 0, fmt.Errorf("failed to close compressed target file %s: %w", targetFile, err)
	}
	if err := file.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, targetFile); err != nil {
		return 0, err
	}
	return counter.Count(), nil
}

func tarDirectory(ctx context.Context, w io.Writer, sourceDir, prefix string) error {
	tw := tar.NewWriter(w)
	err := filepath.Walk(sourceDir, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk files: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fi.IsDir() && !fi.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(sourceDir, file)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(prefix, rel))
		if name == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return fmt.Errorf("failed to get tar file header information for file %s: %w", file, err)
		}
		header.Name = name
		if fi.IsDir() {
			header.Name += "/"
		}
		header.Uname, header.Gname = "", ""

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar file header information for file %s: %w", file, err)
		}
		if fi.IsDir() {
			return nil
		}

		data, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open source file %s: %w", file, err)
		}
		defer data.Close()
		if _, err = io.Copy(tw, data); err != nil {
			return fmt.Errorf("failed to copy source file data %s: %w", file, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	return nil
}

// Extract restores archive under destDir and returns the uncompressed size
// of the restored files.
func Extract(ctx context.Context, archive, destDir string) (int64, error) {
	file, err := os.Open(archive)
	if err != nil {
		return 0, fmt.Errorf("failed to open snapshot %s: %w", archive, err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return 0, fmt.Errorf("failed to create gzip reader for %s: %w", archive, err)
	}
	defer zr.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return 0, err
	}

	var size int64
	tr := tar.NewReader(zr)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return size, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read snapshot %s: %w", archive, err)
		}

		target := filepath.Join(root, filepath.FromSlash(header.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return 0, fmt.Errorf("%s: %w", header.Name, ErrUnsafePath)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := vgfs.EnsureDir(target); err != nil {
				return 0, err
			}
		case tar.TypeReg:
			counter := vgio.NewCountReader(tr)
			if err := extractFile(counter, target, os.FileMode(header.Mode).Perm()); err != nil {
				return 0, err
			}
			size += counter.Count()
		}
	}
}

func extractFile(r io.Reader, target string, perm os.FileMode) error {
	if err := vgfs.EnsureDir(filepath.Dir(target)); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", target, err)
	}
	return out.Close()
}
