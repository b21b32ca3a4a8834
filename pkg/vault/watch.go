// Copyright 2024-2025 EMQ Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vault

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"

	"github.com/lf-edge/ekuiper-vault/internal/conf"
	"github.com/lf-edge/ekuiper-vault/pkg/timex"
)

// debounceInterval batches the two file replacements of one rotation into
// a single reload.
const debounceInterval = 100 * time.Millisecond

// Update carries the outcome of a reload after the artifact pair changed
// on disk.
type Update struct {
	Secret string
	Err    error
}

// Watcher reloads the secret when the artifact pair is rotated on disk. It
// watches the parent directories because rotation replaces the files by
// rename, which would detach a watch placed on the files themselves.
type Watcher struct {
	tablePath  string
	recipePath string
	fw         *fsnotify.Watcher
	updates    chan Update
	done       chan struct{}
	closeOnce  sync.Once
	current    atomic.Value
}

// NewWatcher reconstructs the secret once and then follows rotations of
// the pair. The initial reconstruction must succeed, a watcher over a
// broken pair would have nothing to hand out from Current.
func NewWatcher(tablePath, recipePath string) (*Watcher, error) {
	secret, err := Reconstruct(tablePath, recipePath)
	if err != nil {
		return nil, err
	}
	tableAbs, err := filepath.Abs(tablePath)
	if err != nil {
		return nil, err
	}
	recipeAbs, err := filepath.Abs(recipePath)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	dirs := map[string]struct{}{
		filepath.Dir(tableAbs):  {},
		filepath.Dir(recipeAbs): {},
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}
	w := &Watcher{
		tablePath:  tableAbs,
		recipePath: recipeAbs,
		fw:         fw,
		updates:    make(chan Update, 1),
		done:       make(chan struct{}),
	}
	w.current.Store(secret)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	// run is the only sender, closing here lets consumers range over
	// Updates and terminate once the watcher stops.
	defer close(w.updates)
	var (
		timer   *clock.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			name := filepath.Clean(event.Name)
			if name != w.tablePath && name != w.recipePath {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if timer == nil {
					timer = timex.GetTimer(debounceInterval)
					timerCh = timer.C
				} else {
					timer.Reset(debounceInterval)
				}
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			w.reload()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			conf.Log.Warnf("artifact watcher error: %v", err)
		}
	}
}

// reload runs a reconstruction over the rotated pair. A half finished
// rotation simply fails here and the next event after the second file
// lands delivers the new secret.
func (w *Watcher) reload() {
	secret, err := Reconstruct(w.tablePath, w.recipePath)
	if err != nil {
		conf.Log.Warnf("reload after artifact change failed: %v", err)
	} else {
		w.current.Store(secret)
		conf.Log.Infof("artifact pair rotated, secret reloaded from %s", w.tablePath)
	}
	u := Update{Secret: secret, Err: err}
	select {
	case w.updates <- u:
	default:
		// Consumer lags behind. Drop the stale pending entry first, run is
		// the only sender so the retry cannot block.
		select {
		case <-w.updates:
		default:
		}
		w.updates <- u
	}
}

// Current returns the most recently reconstructed secret. A failed reload
// keeps the previous value.
func (w *Watcher) Current() string {
	return w.current.Load().(string)
}

// Updates delivers reload outcomes. Only the most recent outcome is kept
// for a consumer that lags behind, and the channel is closed once the
// watcher stops.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

// Close stops watching. It does not touch the artifacts.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
	})
	return w.fw.Close()
}
