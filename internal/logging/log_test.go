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

package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zombienet/zombie-bite/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	t.Run("Parsing levels", testParsingLevels)
	t.Run("Named loggers join their names", testNamedLoggers)
	t.Run("Setting the level is shared by children", testSetLevel)
	t.Run("Entries are copied to the log file", testLogFile)
}

func testParsingLevels(t *testing.T) {
	tcs := map[string]logging.Level{
		"debug":   logging.DebugLevel,
		"INFO":    logging.InfoLevel,
		"warning": logging.WarnLevel,
		"warn":    logging.WarnLevel,
		"error":   logging.ErrorLevel,
		"fatal":   logging.FatalLevel,
	}
	for in, expected := range tcs {
		lvl, err := logging.ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, expected, lvl)
	}

	_, err := logging.ParseLevel("verbose")
	assert.Error(t, err)
}

func testNamedLoggers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	log := logging.New(core, &level)

	child := log.Named("bite").Named("sync")
	assert.Equal(t, "bite.sync", child.GetName())

	child.Info("synced", logging.Chain("polkadot"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "bite.sync", entry.LoggerName)
	assert.Equal(t, "polkadot", entry.ContextMap()["chain"])
}

func testSetLevel(t *testing.T) {
	log := logging.NewTestLogger()
	child := log.Named("monitor")

	log.SetLevel(logging.ErrorLevel)
	assert.Equal(t, logging.ErrorLevel, child.GetLevel())
	assert.Equal(t, "error", child.GetLevelString())
}

func testLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zombie-bite.log")
	log := logging.NewLoggerFromConfig(logging.Config{
		Environment: "prod",
		Level:       logging.InfoLevel,
		File:        path,
	})

	log.Debug("dropped")
	log.Info("bitten", logging.Chain("kusama"))
	_ = log.Sync()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 1)

	entry := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "bitten", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "kusama", entry["chain"])
}
