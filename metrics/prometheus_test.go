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
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/zombienet/zombie-bite/internal/logging"
	"github.com/zombienet/zombie-bite/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()

	h, err := metrics.AddInstrument(reg, metrics.Counter, "test_total", metrics.Vectors("node"))
	require.NoError(t, err)
	_, err = h.CounterVec()
	require.NoError(t, err)
	_, err = h.GaugeVec()
	assert.ErrorIs(t, err, metrics.ErrInstrumentTypeMismatch)

	_, err = metrics.AddInstrument(reg, metrics.Counter, "test_total", metrics.Vectors("node"))
	assert.Error(t, err)
}

func freeAddress(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestStartServesInstruments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conf := metrics.NewDefaultConfig()
	conf.Enabled = true
	conf.Address = freeAddress(t)
	require.NoError(t, metrics.Start(ctx, logging.NewTestLogger(), conf))
	require.NoError(t, metrics.Setup())

	metrics.RestartFailureCounterInc("alice")
	metrics.RestartCounterInc("alice")

	url := fmt.Sprintf("http://%s%s", conf.Address, conf.Path)
	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(data)
		return true
	}, 5*time.Second, 50*time.Millisecond)

	assert.True(t, strings.Contains(body, `zombie_bite_restart_failures_total{node="alice"} 1`), body)
	assert.True(t, strings.Contains(body, `zombie_bite_restarts_total{node="alice"} 1`), body)
}
