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

package provider

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/zombienet/zombie-bite/internal/logging"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	namedLogger        = "provider"
	defaultStopTimeout = 10 * time.Second
	logMaxSizeMB       = 512
	logMaxBackups      = 3
)

var ErrNodeExists = errors.New("node already exists in namespace")

// NativeNamespace runs nodes as local processes.
type NativeNamespace struct {
	id          string
	baseDir     string
	log         *logging.Logger
	stopTimeout time.Duration

	mu    sync.Mutex
	nodes map[string]*NativeNode
}

// NewNativeNamespace creates baseDir and a namespace rooted at it.
func NewNativeNamespace(log *logging.Logger, baseDir string) (*NativeNamespace, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %q: %w", baseDir, err)
	}
	if err := vgfs.EnsureDir(abs); err != nil {
		return nil, err
	}

	id := "zombie-" + uuid.NewString()
	return &NativeNamespace{
		id:          id,
		baseDir:     abs,
		log:         log.Named(namedLogger).With(logging.String("namespace", id)),
		stopTimeout: defaultStopTimeout,
		nodes:       map[string]*NativeNode{},
	}, nil
}

func (ns *NativeNamespace) ID() string      { return ns.id }
func (ns *NativeNamespace) BaseDir() string { return ns.baseDir }

func (ns *NativeNamespace) SpawnNode(ctx context.Context, opts SpawnOptions) (Node, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if _, ok := ns.nodes[opts.Name]; ok {
		return nil, fmt.Errorf("%s: %w", opts.Name, ErrNodeExists)
	}

	binPath, err := LookupBinary(opts.Command)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(ns.baseDir, opts.Name)
	if err := vgfs.EnsureDir(dir); err != nil {
		return nil, err
	}

	node := &NativeNode{
		name:        opts.Name,
		dir:         dir,
		binPath:     binPath,
		opts:        opts,
		log:         ns.log.With(logging.Node(opts.Name)),
		stopTimeout: ns.stopTimeout,
		logFile: &lumberjack.Logger{
			Filename:   filepath.Join(dir, opts.Name+".log"),
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			Compress:   true,
		},
	}
	if err := node.start(); err != nil {
		return nil, err
	}
	ns.nodes[opts.Name] = node
	return node, nil
}

func (ns *NativeNamespace) RunCommand(ctx context.Context, opts RunCommandOptions) ([]byte, error) {
	binPath, err := LookupBinary(opts.Command)
	if err != nil {
		return nil, err
	}
	ns.log.Debug("running command",
		logging.String("binaryPath", binPath),
		logging.Strings("args", opts.Args),
	)
	return ExecuteBinary(ctx, binPath, opts.Args, opts.Env)
}

// Destroy stops every node of the namespace. The base directory is kept.
func (ns *NativeNamespace) Destroy(ctx context.Context) error {
	ns.mu.Lock()
	nodes := make([]*NativeNode, 0, len(ns.nodes))
	for _, n := range ns.nodes {
		nodes = append(nodes, n)
	}
	ns.nodes = map[string]*NativeNode{}
	ns.mu.Unlock()

	var firstErr error
	for _, n := range nodes {
		if err := n.Destroy(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NativeNode is a node process. It is restarted with the exact command
// line it was spawned with.
type NativeNode struct {
	name        string
	dir         string
	binPath     string
	opts        SpawnOptions
	log         *logging.Logger
	stopTimeout time.Duration
	logFile     io.WriteCloser

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

func (n *NativeNode) Name() string    { return n.name }
func (n *NativeNode) Dir() string     { return n.dir }
func (n *NativeNode) LogPath() string { return filepath.Join(n.dir, n.name+".log") }

func (n *NativeNode) start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	cmd := exec.Command(n.binPath, n.opts.Args...)
	cmd.Dir = n.dir
	cmd.Env = environ(n.opts.Env)
	cmd.Stdout = n.logFile
	cmd.Stderr = n.logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = n.stopTimeout

	n.log.Debug("Starting binary",
		logging.String("binaryPath", n.binPath),
		logging.Strings("args", n.opts.Args),
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to execute binary %s %v: %w", n.binPath, []string(n.opts.Args), err)
	}

	done := make(chan struct{})
	go func() {
		err := cmd.Wait()
		if err != nil {
			n.log.Debug("binary exited", logging.Error(err))
		}
		close(done)
	}()

	n.cmd = cmd
	n.done = done
	n.log.Info("node started",
		logging.Int("pid", cmd.Process.Pid),
		logging.String("logs", n.LogPath()),
	)
	return nil
}

// Running reports whether the node process is alive.
func (n *NativeNode) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.done == nil {
		return false
	}
	select {
	case <-n.done:
		return false
	default:
		return true
	}
}

func (n *NativeNode) stop(ctx context.Context) error {
	n.mu.Lock()
	cmd, done := n.cmd, n.done
	n.mu.Unlock()
	if cmd == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	default:
	}

	n.log.Info("Stopping process")
	// nodes run in their own process group, signal all of it
	pgid := -cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
		n.log.Debug("Failed to signal running binary", logging.Error(err))
	}

	timer := time.NewTimer(n.stopTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	n.log.Warn("Killing binary")
	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill %s: %w", n.name, err)
	}
	<-done
	return nil
}

func (n *NativeNode) Restart(ctx context.Context) error {
	if err := n.stop(ctx); err != nil {
		return err
	}
	return n.start()
}

func (n *NativeNode) Destroy(ctx context.Context) error {
	if err := n.stop(ctx); err != nil {
		return err
	}
	return n.logFile.Close()
}
