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

package provider_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zombienet/zombie-bite/internal/logging"
	"github.com/zombienet/zombie-bite/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	t.Run("Exists matches both flag forms", func(t *testing.T) {
		args := provider.Args{"--chain", "polkadot", "--rpc-port=9944", "--alice"}
		assert.True(t, args.Exists("chain"))
		assert.True(t, args.Exists("--rpc-port"))
		assert.True(t, args.Exists("alice"))
		assert.False(t, args.Exists("rpc"))
		assert.False(t, args.Exists("base-path"))
	})

	t.Run("Set does not override existing flags", func(t *testing.T) {
		args := provider.Args{"--rpc-port=9944"}
		assert.False(t, args.Set("rpc-port", "1"))
		assert.True(t, args.Set("base-path", "/data"))
		assert.Equal(t, provider.Args{"--rpc-port=9944", "--base-path", "/data"}, args)
	})

	t.Run("Get", func(t *testing.T) {
		args := provider.Args{"--chain", "kusama", "--prometheus-port=9615", "--dev"}
		v, ok := args.Get("chain")
		assert.True(t, ok)
		assert.Equal(t, "kusama", v)

		v, ok = args.Get("prometheus-port")
		assert.True(t, ok)
		assert.Equal(t, "9615", v)

		_, ok = args.Get("dev")
		assert.False(t, ok)
	})

	t.Run("Split extra args", func(t *testing.T) {
		assert.Equal(t,
			provider.Args{"--pruning=archive", "-lruntime=debug"},
			provider.SplitExtraArgs(" --pruning=archive,, -lruntime=debug ,"),
		)
		assert.Empty(t, provider.SplitExtraArgs(""))
	})
}

func newNamespace(t *testing.T) *provider.NativeNamespace {
	t.Helper()
	ns, err := provider.NewNativeNamespace(logging.NewTestLogger(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ns.Destroy(context.Background())
	})
	return ns
}

func readFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func TestNativeNamespace(t *testing.T) {
	t.Run("Spawned node logs to its home", testSpawnNode)
	t.Run("Node names are unique", testSpawnDuplicate)
	t.Run("Unknown command fails", testSpawnUnknown)
	t.Run("Restart reuses the command line", testRestart)
	t.Run("Destroy stops every node", testDestroy)
	t.Run("Run command", testRunCommand)
}

func testSpawnNode(t *testing.T) {
	ns := newNamespace(t)
	assert.True(t, strings.HasPrefix(ns.ID(), "zombie-"))

	node, err := ns.SpawnNode(context.Background(), provider.SpawnOptions{
		Name:    "alice",
		Command: "sh",
		Args:    provider.Args{"-c", "echo started $ZOMBIE_TEST; exec sleep 30"},
		Env:     map[string]string{"ZOMBIE_TEST": "alice"},
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", node.Name())
	assert.Equal(t, filepath.Join(ns.BaseDir(), "alice"), node.Dir())
	assert.Equal(t, filepath.Join(ns.BaseDir(), "alice", "alice.log"), node.LogPath())
	assert.DirExists(t, node.Dir())

	require.Eventually(t, func() bool {
		return strings.Contains(readFile(node.LogPath()), "started alice")
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, node.(*provider.NativeNode).Running())
}

func testSpawnDuplicate(t *testing.T) {
	ns := newNamespace(t)
	opts := provider.SpawnOptions{
		Name:    "bob",
		Command: "sh",
		Args:    provider.Args{"-c", "exec sleep 30"},
	}
	_, err := ns.SpawnNode(context.Background(), opts)
	require.NoError(t, err)

	_, err = ns.SpawnNode(context.Background(), opts)
	assert.ErrorIs(t, err, provider.ErrNodeExists)
}

func testSpawnUnknown(t *testing.T) {
	ns := newNamespace(t)
	_, err := ns.SpawnNode(context.Background(), provider.SpawnOptions{
		Name:    "charlie",
		Command: "zombie-bite-no-such-binary",
	})
	assert.Error(t, err)
	assert.NoDirExists(t, filepath.Join(ns.BaseDir(), "charlie"))
}

func testRestart(t *testing.T) {
	ns := newNamespace(t)
	node, err := ns.SpawnNode(context.Background(), provider.SpawnOptions{
		Name:    "collator",
		Command: "sh",
		Args:    provider.Args{"-c", "echo run >> runs.txt; exec sleep 30"},
	})
	require.NoError(t, err)

	runs := filepath.Join(node.Dir(), "runs.txt")
	require.Eventually(t, func() bool {
		return readFile(runs) == "run\n"
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, node.Restart(context.Background()))
	require.Eventually(t, func() bool {
		return readFile(runs) == "run\nrun\n"
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, node.(*provider.NativeNode).Running())
}

func testDestroy(t *testing.T) {
	ns := newNamespace(t)
	var nodes []*provider.NativeNode
	for _, name := range []string{"alice", "bob"} {
		node, err := ns.SpawnNode(context.Background(), provider.SpawnOptions{
			Name:    name,
			Command: "sh",
			Args:    provider.Args{"-c", "exec sleep 30"},
		})
		require.NoError(t, err)
		nodes = append(nodes, node.(*provider.NativeNode))
	}

	require.NoError(t, ns.Destroy(context.Background()))
	for _, n := range nodes {
		assert.False(t, n.Running(), n.Name())
	}
	assert.DirExists(t, ns.BaseDir())
}

func testRunCommand(t *testing.T) {
	ns := newNamespace(t)

	out, err := ns.RunCommand(context.Background(), provider.RunCommandOptions{
		Command: "sh",
		Args:    []string{"-c", "echo $ZOMBIE_TEST; echo ignored >&2"},
		Env:     map[string]string{"ZOMBIE_TEST": "exported"},
	})
	require.NoError(t, err)
	assert.Equal(t, "exported\n", string(out))

	_, err = ns.RunCommand(context.Background(), provider.RunCommandOptions{
		Command: "sh",
		Args:    []string{"-c", "echo boom >&2; exit 3"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestBinaryVersion(t *testing.T) {
	dir := t.TempDir()
	script := func(name, output string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho '"+output+"'\n"), 0o755))
		return path
	}

	t.Run("Parses the node version", func(t *testing.T) {
		v, err := provider.BinaryVersion(context.Background(), script("polkadot", "polkadot 1.14.0-0bb6249268c"))
		require.NoError(t, err)
		assert.Equal(t, "1.14.0-0bb6249268c", v.String())
		assert.EqualValues(t, 14, v.Minor)
	})

	t.Run("No version in output", func(t *testing.T) {
		_, err := provider.BinaryVersion(context.Background(), script("broken", "unknown"))
		assert.Error(t, err)
	})
}
