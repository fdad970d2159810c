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

package encoding_test

import (
	"testing"
	"time"

	"github.com/zombienet/zombie-bite/config/encoding"
	"github.com/zombienet/zombie-bite/internal/logging"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	t.Run("Go durations", func(t *testing.T) {
		var d encoding.Duration
		require.NoError(t, d.UnmarshalText([]byte("1m30s")))
		assert.Equal(t, 90*time.Second, d.Get())
	})

	t.Run("plain seconds", func(t *testing.T) {
		var d encoding.Duration
		require.NoError(t, d.UnmarshalFlag("300"))
		assert.Equal(t, 5*time.Minute, d.Get())
	})

	t.Run("invalid values", func(t *testing.T) {
		for _, in := range []string{"", "soon", "-5m", "-1"} {
			var d encoding.Duration
			assert.Error(t, d.UnmarshalText([]byte(in)), in)
		}
	})

	t.Run("round trip through toml", func(t *testing.T) {
		var in struct {
			Interval encoding.Duration `toml:"interval"`
			Level    encoding.LogLevel `toml:"level"`
		}
		in.Interval = encoding.Duration{Duration: 15 * time.Minute}
		in.Level = encoding.LogLevel{Level: logging.WarnLevel}

		out, err := toml.Marshal(in)
		require.NoError(t, err)

		var back struct {
			Interval encoding.Duration `toml:"interval"`
			Level    encoding.LogLevel `toml:"level"`
		}
		_, err = toml.Decode(string(out), &back)
		require.NoError(t, err)
		assert.Equal(t, in, back)
	})
}

func TestLogLevel(t *testing.T) {
	var l encoding.LogLevel
	require.NoError(t, l.UnmarshalText([]byte("debug")))
	assert.Equal(t, logging.DebugLevel, l.Get())

	assert.Error(t, l.UnmarshalText([]byte("loud")))
	assert.Equal(t, logging.DebugLevel, l.Get())
}
