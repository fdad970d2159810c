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

package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/zombienet/zombie-bite/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// watchStopFile closes the returned channel once path is created or written.
// The parent directory is watched, so the file does not need to exist yet.
// wait blocks until the watch is over, after ctx is done.
func watchStopFile(ctx context.Context, log *logging.Logger, path string) (<-chan struct{}, func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't create the stop file watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("couldn't watch %s: %w", dir, err)
	}

	stopped := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		watch(ctx, log, watcher, filepath.Clean(path), stopped)
	}()
	return stopped, wg.Wait, nil
}

func watch(ctx context.Context, log *logging.Logger, watcher *fsnotify.Watcher, path string, stopped chan<- struct{}) {
	defer watcher.Close()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				log.Debug("stop file event", logging.String("op", event.Op.String()))
				close(stopped)
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("stop file watcher failed", logging.Error(err))
		case <-ctx.Done():
			return
		}
	}
}
