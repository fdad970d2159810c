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

package metrics_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zombienet/zombie-bite/internal/logging"
	"github.com/zombienet/zombie-bite/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const exposition = `# HELP substrate_block_height Block height info of the chain
# TYPE substrate_block_height gauge
substrate_block_height{status="best",chain="polkadot"} 24264268
substrate_block_height{status="finalized",chain="polkadot"} 24264266
# HELP substrate_sub_libp2p_is_major_syncing Whether the node is performing a major sync or not.
# TYPE substrate_sub_libp2p_is_major_syncing gauge
substrate_sub_libp2p_is_major_syncing{chain="polkadot"} %d
# HELP substrate_tasks_spawned_total Total number of tasks that have been spawned.
# TYPE substrate_tasks_spawned_total counter
substrate_tasks_spawned_total{task_name="babe"} 12
`

func serve(t *testing.T, syncing func() int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprintf(w, exposition, syncing())
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/metrics"
}

func TestParseQuery(t *testing.T) {
	q, err := metrics.ParseQuery(`block_height{status="best"}`)
	require.NoError(t, err)
	assert.Equal(t, "block_height", q.Name)
	assert.Equal(t, map[string]string{"status": "best"}, q.Labels)

	q, err = metrics.ParseQuery(metrics.MajorSyncing)
	require.NoError(t, err)
	assert.Equal(t, metrics.MajorSyncing, q.Name)
	assert.Empty(t, q.Labels)

	_, err = metrics.ParseQuery(`block_height{status="best"`)
	assert.ErrorIs(t, err, metrics.ErrInvalidQuery)
	_, err = metrics.ParseQuery("")
	assert.ErrorIs(t, err, metrics.ErrInvalidQuery)
}

func TestScraper(t *testing.T) {
	t.Run("Reads gauges by label", testReadGauge)
	t.Run("Reads counters", testReadCounter)
	t.Run("Missing metric", testReadMissing)
	t.Run("Waits for the endpoint", testWaitReady)
	t.Run("Waits for the sync to finish", testWaitSync)
	t.Run("Sync wait is cancellable", testWaitSyncCancel)
	t.Run("Unreadable sync state is logged", testWaitSyncUnreadable)
}

func testReadGauge(t *testing.T) {
	url := serve(t, func() int { return 0 })
	s := metrics.NewScraper(logging.NewTestLogger(), 5*time.Second)

	best, err := s.Read(context.Background(), url, metrics.BestBlock)
	require.NoError(t, err)
	assert.Equal(t, float64(24264268), best)

	finalized, err := s.Read(context.Background(), url, `substrate_block_height{status="finalized"}`)
	require.NoError(t, err)
	assert.Equal(t, float64(24264266), finalized)
}

func testReadCounter(t *testing.T) {
	url := serve(t, func() int { return 0 })
	s := metrics.NewScraper(logging.NewTestLogger(), 5*time.Second)

	v, err := s.Read(context.Background(), url, `tasks_spawned_total{task_name="babe"}`)
	require.NoError(t, err)
	assert.Equal(t, float64(12), v)
}

func testReadMissing(t *testing.T) {
	url := serve(t, func() int { return 0 })
	s := metrics.NewScraper(logging.NewTestLogger(), 5*time.Second)

	_, err := s.Read(context.Background(), url, "substrate_unknown")
	assert.ErrorIs(t, err, metrics.ErrMetricNotFound)

	_, err = s.Read(context.Background(), url, `block_height{status="unknown"}`)
	assert.ErrorIs(t, err, metrics.ErrMetricNotFound)
}

func testWaitReady(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, exposition, 1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, metrics.NewScraper(logging.NewTestLogger(), time.Second).WaitReady(ctx, srv.URL))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func testWaitSync(t *testing.T) {
	var polls int32
	url := serve(t, func() int {
		if atomic.AddInt32(&polls, 1) < 4 {
			return 1
		}
		return 0
	})

	var ticks int
	err := metrics.NewScraper(logging.NewTestLogger(), time.Second).WaitSync(context.Background(), url, 10*time.Millisecond, func() { ticks++ })
	require.NoError(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&polls))
	assert.Equal(t, 4, ticks)
}

func testWaitSyncCancel(t *testing.T) {
	url := serve(t, func() int { return 1 })
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := metrics.NewScraper(logging.NewTestLogger(), time.Second).WaitSync(ctx, url, 10*time.Millisecond, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func testWaitSyncUnreadable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	s := metrics.NewScraper(logging.New(core, &level), time.Second)

	require.NoError(t, s.WaitSync(context.Background(), srv.URL, 10*time.Millisecond, nil))
	entries := logs.FilterMessage("couldn't read the sync state, assuming synced").All()
	require.Len(t, entries, 1)
	assert.Equal(t, srv.URL, entries[0].ContextMap()["url"])
}
