/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func lastJSONLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log %q: %v", last, err)
	}
	return m
}

func TestInitJSONToFileCarriesStaticAndContextAttrs(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "dekk.log")
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "json", File: fpath, Output: &console})

	l := WithOperation(WithComponent("space"), "addSlice")
	l.InfoContext(WithDeck(context.Background(), "deck-1"), "slice added", slog.String("slice", "s1"))

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, m := range []map[string]any{lastJSONLine(t, b), lastJSONLine(t, console.Bytes())} {
		if m["app"] != "dekk" {
			t.Fatalf("app attr = %v", m["app"])
		}
		if _, ok := m["ver"].(string); !ok {
			t.Fatalf("missing ver attr: %v", m)
		}
		if m["component"] != "space" || m["op"] != "addSlice" {
			t.Fatalf("component/op mismatch: %v", m)
		}
		if m["deck"] != "deck-1" {
			t.Fatalf("deck attr from context missing: %v", m)
		}
		if m["msg"] != "slice added" || m["slice"] != "s1" {
			t.Fatalf("record content mismatch: %v", m)
		}
	}
}

func TestSetLevelFiltersWithoutReinit(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "console", Output: &buf})
	L().Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug record written at info level: %q", buf.String())
	}
	SetLevel("debug")
	L().Debug("shown")
	if !strings.Contains(buf.String(), "DBG shown") {
		t.Fatalf("debug record missing after SetLevel: %q", buf.String())
	}
}

func TestDeckFromEmptyContext(t *testing.T) {
	if _, ok := DeckFrom(context.Background()); ok {
		t.Fatalf("expected no deck id")
	}
	if _, ok := DeckFrom(WithDeck(context.Background(), "")); ok {
		t.Fatalf("empty deck id should not be reported")
	}
}
