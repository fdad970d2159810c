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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sort"

	"github.com/blang/semver/v4"
)

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?`)

// LookupBinary resolves command against PATH.
func LookupBinary(command string) (string, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Errorf("failed to locate binary %s: %w", command, err)
	}
	return path, nil
}

// ExecuteBinary runs the binary to completion and returns its stdout.
func ExecuteBinary(ctx context.Context, binaryPath string, args []string, env map[string]string) ([]byte, error) {
	command := exec.CommandContext(ctx, binaryPath, args...)
	command.Env = environ(env)

	var stdOut, stdErr bytes.Buffer
	command.Stdout = &stdOut
	command.Stderr = &stdErr

	if err := command.Run(); err != nil {
		return nil, fmt.Errorf(
			"failed to execute binary %s %v with error: %s: %w",
			binaryPath,
			args,
			stdErr.String(),
			err,
		)
	}

	return stdOut.Bytes(), nil
}

// BinaryVersion runs <binary> --version and parses the first semantic
// version of its output, e.g. "polkadot 1.14.0-0bb6249268c".
func BinaryVersion(ctx context.Context, binary string) (semver.Version, error) {
	out, err := ExecuteBinary(ctx, binary, []string{"--version"}, nil)
	if err != nil {
		return semver.Version{}, err
	}
	raw := versionPattern.Find(out)
	if raw == nil {
		return semver.Version{}, fmt.Errorf("no version found in %q", bytes.TrimSpace(out))
	}
	v, err := semver.ParseTolerant(string(raw))
	if err != nil {
		return semver.Version{}, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	return v, nil
}

// environ is the current environment extended with env, in a stable order.
func environ(env map[string]string) []string {
	out := os.Environ()
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
