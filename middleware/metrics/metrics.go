// Copyright 2025 The Rivaas Authors
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

// Package metrics provides request-measurement middleware behind a small
// Recorder interface. The interface is the contract; the bundled Collector
// is an opt-in in-memory implementation, constructed explicitly and never
// installed as process-global state.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/veltra-dev/veltra/router"
)

// Recorder receives one observation per completed request.
type Recorder interface {
	ObserveRequest(method, path string, status int, duration time.Duration)
}

// statusWriter captures the downstream status code.
type statusWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

// New returns middleware feeding every completed request to rec.
func New(rec Recorder) router.Handler {
	return func(c *router.Context, next router.Next) error {
		original := c.Response
		sw := &statusWriter{ResponseWriter: original, status: http.StatusOK}
		c.Response = sw

		start := time.Now()
		err := next()
		c.Response = original

		status := sw.status
		if err != nil && !sw.wrote {
			status = http.StatusInternalServerError
		}
		rec.ObserveRequest(c.Method(), c.Path(), status, time.Since(start))
		return err
	}
}

// Collector is an in-memory Recorder counting requests and total latency
// per method+status class. Safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	stats map[statKey]*stat
}

type statKey struct {
	method string
	class  int // status / 100
}

type stat struct {
	count    int64
	duration time.Duration
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{stats: make(map[statKey]*stat)}
}

// ObserveRequest implements Recorder.
func (col *Collector) ObserveRequest(method, _ string, status int, duration time.Duration) {
	col.mu.Lock()
	defer col.mu.Unlock()
	key := statKey{method: method, class: status / 100}
	s, ok := col.stats[key]
	if !ok {
		s = &stat{}
		col.stats[key] = s
	}
	s.count++
	s.duration += duration
}

// Snapshot is one aggregated row of Collector output.
type Snapshot struct {
	Method      string
	StatusClass int // 2 for 2xx, 4 for 4xx, ...
	Count       int64
	TotalTime   time.Duration
}

// Snapshots returns the collector's current aggregates.
func (col *Collector) Snapshots() []Snapshot {
	col.mu.Lock()
	defer col.mu.Unlock()
	out := make([]Snapshot, 0, len(col.stats))
	for k, s := range col.stats {
		out = append(out, Snapshot{Method: k.method, StatusClass: k.class, Count: s.count, TotalTime: s.duration})
	}
	return out
}
