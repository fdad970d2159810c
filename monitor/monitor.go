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

// Package monitor keeps a spawned network producing blocks, restarting the
// nodes that stall.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/zombienet/zombie-bite/internal/logging"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"
	"github.com/zombienet/zombie-bite/metrics"
)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/monitor_mock.go -package mocks github.com/zombienet/zombie-bite/monitor Scraper,Node

const (
	namedLogger = "monitor"

	defaultInterval      = 15 * time.Minute
	defaultTick          = time.Minute
	defaultTicksPerCheck = 15
	defaultMetricTimeout = 300 * time.Second
)

// Scraper reads a single metric of a node.
type Scraper interface {
	Read(ctx context.Context, url, query string) (float64, error)
}

// Node is a monitored node.
type Node interface {
	Name() string
	MetricsURL() string
	Restart(ctx context.Context) error
}

// Target is a node whose stall also restarts its dependents, the collators
// following a validator over RPC.
type Target struct {
	Node       Node
	Dependents []Node
}

type Config struct {
	// Interval separates checks when there is no stop file.
	Interval time.Duration
	// StopFile ends the monitor when it appears. The monitor then looks
	// for it every Tick and checks every TicksPerCheck ticks.
	StopFile      string
	Tick          time.Duration
	TicksPerCheck int
	MetricTimeout time.Duration
}

func NewDefaultConfig() Config {
	return Config{
		Interval:      defaultInterval,
		Tick:          defaultTick,
		TicksPerCheck: defaultTicksPerCheck,
		MetricTimeout: defaultMetricTimeout,
	}
}

type Monitor struct {
	log     *logging.Logger
	cfg     Config
	scraper Scraper
	targets []Target
	// best is the last block each node was seen at.
	best map[string]float64
}

func New(log *logging.Logger, cfg Config, scraper Scraper, targets []Target) *Monitor {
	return &Monitor{
		log:     log.Named(namedLogger),
		cfg:     cfg,
		scraper: scraper,
		targets: targets,
		best:    map[string]float64{},
	}
}

// Run blocks until ctx is done or the stop file appears. Every node must
// have produced a block when Run starts.
func (m *Monitor) Run(ctx context.Context) error {
	for _, node := range m.nodes() {
		block, err := m.progress(ctx, node, 0)
		if err != nil {
			return fmt.Errorf("first check of %s failed: %w", node.Name(), err)
		}
		m.best[node.Name()] = block
	}
	m.log.Info("monitoring network", logging.Strings("nodes", m.names()))

	if m.cfg.StopFile == "" {
		return m.runEvery(ctx)
	}
	return m.runUntilStopFile(ctx)
}

func (m *Monitor) runEvery(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *Monitor) runUntilStopFile(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	stopped, wait, err := watchStopFile(ctx, m.log, m.cfg.StopFile)
	if err != nil {
		cancel()
		return err
	}
	defer func() {
		cancel()
		wait()
	}()

	if m.stopFileExists() {
		return nil
	}

	ticker := time.NewTicker(m.cfg.Tick)
	defer ticker.Stop()
	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopped:
			return nil
		case <-ticker.C:
			// events can be missed, e.g. on network file systems
			if m.stopFileExists() {
				return nil
			}
			ticks++
			if ticks >= m.cfg.TicksPerCheck {
				ticks = 0
				m.Check(ctx)
			}
		}
	}
}

func (m *Monitor) stopFileExists() bool {
	ok, err := vgfs.PathExists(m.cfg.StopFile)
	if err != nil {
		m.log.Warn("couldn't look for the stop file", logging.Error(err))
		return false
	}
	if ok {
		m.log.Info("stop file found", logging.String("path", m.cfg.StopFile))
	}
	return ok
}

// Check runs one round: every target that did not move past its last block
// is restarted with its dependents. Nodes restarted in the round are not
// checked again.
func (m *Monitor) Check(ctx context.Context) {
	restarted := map[string]struct{}{}
	for _, t := range m.targets {
		name := t.Node.Name()
		if _, ok := restarted[name]; ok {
			continue
		}

		block, err := m.progress(ctx, t.Node, m.best[name])
		if err == nil {
			m.best[name] = block
			continue
		}
		m.log.Warn("node is not progressing", logging.Node(name), logging.Error(err))

		m.restart(ctx, t.Node)
		restarted[name] = struct{}{}
		for _, d := range t.Dependents {
			if _, ok := restarted[d.Name()]; ok {
				continue
			}
			m.restart(ctx, d)
			restarted[d.Name()] = struct{}{}
		}
	}
}

// progress returns the best block of node when it is past checkpoint.
func (m *Monitor) progress(ctx context.Context, node Node, checkpoint float64) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.MetricTimeout)
	defer cancel()

	block, err := m.scraper.Read(ctx, node.MetricsURL(), metrics.BestBlock)
	if err != nil {
		return 0, err
	}
	metrics.BestBlockSet(node.Name(), block)
	if block <= checkpoint {
		return 0, fmt.Errorf("stuck at block %.0f, checkpoint %.0f", block, checkpoint)
	}
	m.log.Debug("node is progressing",
		logging.Node(node.Name()),
		logging.Float64("checkpoint", checkpoint),
		logging.Float64("block", block),
	)
	return block, nil
}

func (m *Monitor) restart(ctx context.Context, node Node) {
	metrics.RestartCounterInc(node.Name())
	if err := node.Restart(ctx); err != nil {
		metrics.RestartFailureCounterInc(node.Name())
		m.log.Warn("couldn't restart node", logging.Node(node.Name()), logging.Error(err))
		return
	}
	m.log.Warn("node restarted",
		logging.Node(node.Name()),
		logging.Float64("block", m.best[node.Name()]),
	)
}

// nodes lists every target and dependent once, in order.
func (m *Monitor) nodes() []Node {
	seen := map[string]struct{}{}
	var out []Node
	add := func(n Node) {
		if _, ok := seen[n.Name()]; ok {
			return
		}
		seen[n.Name()] = struct{}{}
		out = append(out, n)
	}
	for _, t := range m.targets {
		add(t.Node)
		for _, d := range t.Dependents {
			add(d)
		}
	}
	return out
}

func (m *Monitor) names() []string {
	nodes := m.nodes()
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name())
	}
	return names
}
