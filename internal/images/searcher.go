/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package images

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is the searcher's quiet period; the editor uses 1s.
const DefaultDebounce = 200 * time.Millisecond

// SearchFunc runs one search.
type SearchFunc func(ctx context.Context, q Query) (Photos, error)

// Result is delivered for the latest query only.
type Result struct {
	Query  Query
	Photos Photos
	Err    error
}

// Searcher debounces type-ahead queries. Each Submit replaces the pending
// query and cancels any search still in flight, so only the result of the
// newest query is delivered.
type Searcher struct {
	search  SearchFunc
	delay   time.Duration
	deliver func(Result)

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

// NewSearcher returns a searcher calling deliver from its own goroutine.
func NewSearcher(search SearchFunc, delay time.Duration, deliver func(Result)) *Searcher {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Searcher{search: search, delay: delay, deliver: deliver}
}

// Submit schedules q after the quiet period.
func (s *Searcher) Submit(q Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	gen := s.gen
	s.stopLocked()
	s.timer = time.AfterFunc(s.delay, func() { s.run(gen, q) })
}

// Stop drops the pending query and cancels the running one.
func (s *Searcher) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.stopLocked()
}

func (s *Searcher) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) run(gen uint64, q Query) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	photos, err := s.search(ctx, q)
	cancel()

	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}
	s.deliver(Result{Query: q, Photos: photos, Err: err})
}
