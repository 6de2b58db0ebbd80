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

package router

import "sync"

// Session holds per-request session state: an id, the data map, a dirty
// flag, and an isSaving flag serializing saves. The signing, cookie
// encoding, and store persistence live in middleware/session; this type is
// the data model the Context exposes to handlers.
type Session struct {
	ID   string
	Data map[string]any

	mu       sync.Mutex
	dirty    bool
	isSaving bool
}

// NewSession creates an empty session with the given id.
func NewSession(id string) *Session {
	return &Session{ID: id, Data: make(map[string]any)}
}

// Get reads a session value.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.Data[key]
	return v, ok
}

// Set writes a session value and marks the session dirty.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Data[key] = value
	s.dirty = true
}

// Delete removes a session value and marks the session dirty.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Data, key)
	s.dirty = true
}

// Snapshot returns a copy of the session data safe to hand to a store
// while other goroutines keep writing.
func (s *Session) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		out[k] = v
	}
	return out
}

// Replace swaps in data loaded from a store without marking the session
// dirty.
func (s *Session) Replace(data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data == nil {
		data = make(map[string]any)
	}
	s.Data = data
}

// Dirty reports whether the session has unsaved writes.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// MarkClean clears the dirty flag, typically after a successful save.
func (s *Session) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// BeginSave attempts to claim the isSaving flag. It returns false if a
// save is already in flight; the session stays dirty, and the in-flight
// saver runs the follow-up save once it sees that.
func (s *Session) BeginSave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isSaving {
		return false
	}
	s.isSaving = true
	return true
}

// EndSave releases the isSaving flag.
func (s *Session) EndSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isSaving = false
}

// Session returns the session bound to this request, or nil if no session
// middleware has run.
func (c *Context) Session() *Session { return c.session }

// SetSession binds a session to this request. Called by session
// middleware after lazily loading from the store.
func (c *Context) SetSession(s *Session) { c.session = s }
