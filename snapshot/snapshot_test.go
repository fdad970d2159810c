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

package snapshot_test

import (
	"archive/tar"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/zombienet/zombie-bite/snapshot"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestSnapshot(t *testing.T) {
	t.Run("Entries are rooted at the prefix", testCreatePrefix)
	t.Run("Round trip", testRoundTrip)
	t.Run("Cancelled context leaves no archive", testCreateCancelled)
	t.Run("Entries escaping the destination are rejected", testExtractUnsafe)
}

func testCreatePrefix(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"chains/polkadot/db/full/000001.log": "log",
		"chains/polkadot/keystore/key":       "key",
	})
	target := filepath.Join(t.TempDir(), "polkadot-snap.tgz")

	size, err := snapshot.Create(context.Background(), src, target, snapshot.DataPrefix)
	require.NoError(t, err)

	fi, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, fi.Size(), size)
	assert.NoFileExists(t, target+".tmp")

	f, err := os.Open(target)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)

	var names []string
	tr := tar.NewReader(zr)
	for {
		h, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, h.Name)
	}
	assert.Contains(t, names, "data/chains/polkadot/db/full/000001.log")
	assert.Contains(t, names, "data/chains/polkadot/keystore/key")
	assert.Contains(t, names, "data/chains/")
}

func testRoundTrip(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"chains/ksmcc3/db/full/MANIFEST": "manifest",
		"chains/ksmcc3/db/full/CURRENT":  "MANIFEST-000001\n",
		"README":                         "",
	}
	writeTree(t, src, files)
	require.NoError(t, os.MkdirAll(filepath.Join(src, "chains/ksmcc3/network"), 0o755))
	archive := filepath.Join(t.TempDir(), "snap.tgz")

	_, err := snapshot.Create(context.Background(), src, archive, snapshot.DataPrefix)
	require.NoError(t, err)

	dest := t.TempDir()
	size, err := snapshot.Extract(context.Background(), archive, dest)
	require.NoError(t, err)
	var want int64
	for _, content := range files {
		want += int64(len(content))
	}
	assert.Equal(t, want, size)

	for name, content := range files {
		data, err := os.ReadFile(filepath.Join(dest, snapshot.DataPrefix, name))
		require.NoError(t, err, name)
		assert.Equal(t, content, string(data), name)
	}
	assert.DirExists(t, filepath.Join(dest, snapshot.DataPrefix, "chains/ksmcc3/network"))
}

func testCreateCancelled(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a": "a"})
	target := filepath.Join(t.TempDir(), "snap.tgz")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := snapshot.Create(ctx, src, target, snapshot.DataPrefix)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, target)
	assert.NoFileExists(t, target+".tmp")
}

func testExtractUnsafe(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evil.tgz")
	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	tw := tar.NewWriter(zw)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../escape", Mode: 0o644, Size: 1, Typeflag: tar.TypeReg}))
	_, err = tw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	dest := filepath.Join(t.TempDir(), "node")
	_, err = snapshot.Extract(context.Background(), archive, dest)
	assert.ErrorIs(t, err, snapshot.ErrUnsafePath)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "escape"))
}
