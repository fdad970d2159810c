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

package zap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

type Logger interface {
	Sync() error
}

// Sync returns a func flushing logger, meant to be deferred. Syncing stdout
// fails with EINVAL or ENOTTY when it is a terminal or a pipe, those errors
// are dropped.
func Sync(logger Logger) func() {
	return syncTo(logger, os.Stderr)
}

func syncTo(logger Logger, w io.Writer) func() {
	return func() {
		err := logger.Sync()
		if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
			return
		}
		// This is the ultimate warning, as we can't do anything else.
		fmt.Fprintf(w, "couldn't flush the logger: %v\n", err)
	}
}
