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

package bite

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/zombienet/zombie-bite/config"
	"github.com/zombienet/zombie-bite/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"name":"asset-hub-paseo"}`))
		}))
		defer srv.Close()

		p := NewPipeline(logging.NewTestLogger(), nil, nil, config.Env{}, nil).WithHTTPClient(srv.Client())
		path := filepath.Join(t.TempDir(), "asset-hub-paseo.json")
		require.NoError(t, p.download(context.Background(), srv.URL, path))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"asset-hub-paseo"}`, string(content))
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("gives up on client errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		p := NewPipeline(logging.NewTestLogger(), nil, nil, config.Env{}, nil).WithHTTPClient(srv.Client())
		path := filepath.Join(t.TempDir(), "spec.json")
		err := p.download(context.Background(), srv.URL, path)
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
		assert.NoFileExists(t, path)
	})
}
