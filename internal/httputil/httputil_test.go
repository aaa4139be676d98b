/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package httputil

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	perm := errors.New("bad request")
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return perm
	})
	if !errors.Is(err, perm) || calls != 1 {
		t.Fatalf("calls=%d err=%v", calls, err)
	}
}

func TestRetryRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errors.New("timeout")}
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("calls=%d err=%v", calls, err)
	}
}

func TestRetryHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error { return &RetryableError{Err: errors.New("x")} })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancel, got %v", err)
	}
}

func TestCheckStatus(t *testing.T) {
	if CheckStatus(200, "u") != nil {
		t.Fatalf("200 should pass")
	}
	if !IsRetryable(CheckStatus(503, "u")) || !IsRetryable(CheckStatus(429, "u")) {
		t.Fatalf("503/429 should be retryable")
	}
	err := CheckStatus(404, "u")
	var se *StatusError
	if IsRetryable(err) || !errors.As(err, &se) || se.Code != 404 {
		t.Fatalf("404 = %v", err)
	}
}

func TestFileCacheHitMissExpire(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	var got []string
	if ok, err := c.Get(ctx, "k", &got); ok || err != nil {
		t.Fatalf("expected miss, got %v %v", ok, err)
	}
	if err := c.Set(ctx, "k", []string{"a", "b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ok, err := c.Get(ctx, "k", &got); !ok || err != nil || len(got) != 2 {
		t.Fatalf("expected hit, got %v %v %v", ok, err, got)
	}
	// namespaced keys do not collide
	if ok, _ := c.Namespace("x:").Get(ctx, "k", &got); ok {
		t.Fatalf("namespace should miss")
	}
	old := time.Now().Add(-2 * time.Hour)
	_ = os.Chtimes(c.path("k"), old, old)
	if _, err := c.Get(ctx, "k", &got); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestCachedFetchesOnce(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir(), 0)
	fetches := 0
	for i := 0; i < 2; i++ {
		var v int
		err := Cached(ctx, c, "n", &v, func() error {
			fetches++
			v = 42
			return nil
		})
		if err != nil || v != 42 {
			t.Fatalf("Cached: v=%d err=%v", v, err)
		}
	}
	if fetches != 1 {
		t.Fatalf("fetches = %d, want 1", fetches)
	}
}

func TestRedisCacheRoundTrip(t *testing.T) {
	url := os.Getenv("DEKK_REDIS_URL")
	if url == "" {
		t.Skip("DEKK_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()
	key := "test:" + time.Now().Format(time.RFC3339Nano)
	if err := c.Set(ctx, key, map[string]int{"a": 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got map[string]int
	if ok, err := c.Get(ctx, key, &got); !ok || err != nil || got["a"] != 1 {
		t.Fatalf("Get = %v %v %v", ok, err, got)
	}
}
