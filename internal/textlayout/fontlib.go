/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores parsed OpenType fonts by family, weight and italic.
// It is safe for concurrent use.
type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]fontEntry
}

type fontEntry struct {
	font *opentype.Font
	data []byte
}

type fontKey struct {
	family string
	weight int
	italic bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]fontEntry)} }

func (k fontKey) name() string {
	n := k.family + "-" + strconv.Itoa(k.weight)
	if k.italic {
		n += "i"
	}
	return n
}

// LoadTTF loads a font file into the library.
func (fl *FontLibrary) LoadTTF(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.LoadBytes(family, weight, italic, data)
}

// LoadBytes parses a TTF/OTF blob into the library.
func (fl *FontLibrary) LoadBytes(family string, weight int, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s %d: %w", family, weight, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]fontEntry)
	}
	fl.fonts[fontKey{family: family, weight: weight, italic: italic}] = fontEntry{font: f, data: data}
	return nil
}

// Has reports whether the exact face is loaded.
func (fl *FontLibrary) Has(family string, weight int, italic bool) bool {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	_, ok := fl.fonts[fontKey{family, weight, italic}]
	return ok
}

// Families lists the loaded family names, sorted.
func (fl *FontLibrary) Families() []string {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for k := range fl.fonts {
		if !seen[k.family] {
			seen[k.family] = true
			out = append(out, k.family)
		}
	}
	sort.Strings(out)
	return out
}

// Source returns the raw font file that spec resolves to and a stable name
// for it, for exporters that embed fonts.
func (fl *FontLibrary) Source(spec FontSpec) (name string, data []byte, ok bool) {
	k, e, ok := fl.lookup(spec)
	if !ok {
		return "", nil, false
	}
	return k.name(), e.data, true
}

func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	_, e, ok := fl.lookup(spec)
	if !ok {
		return nil
	}
	return e.font
}

// lookup returns the exact face, else the same family with matching italic
// and the closest weight, else any face of the family.
func (fl *FontLibrary) lookup(spec FontSpec) (fontKey, fontEntry, bool) {
	if fl == nil {
		return fontKey{}, fontEntry{}, false
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	key := fontKey{spec.Family, spec.Weight, spec.Italic}
	if e, ok := fl.fonts[key]; ok {
		return key, e, true
	}
	var (
		bestKey  fontKey
		best     fontEntry
		found    bool
		bestDist = 1 << 30
	)
	for k, e := range fl.fonts {
		if k.family != spec.Family {
			continue
		}
		d := k.weight - spec.Weight
		if d < 0 {
			d = -d
		}
		if k.italic != spec.Italic {
			d += 1000
		}
		if d < bestDist {
			bestKey, best, found, bestDist = k, e, true, d
		}
	}
	return bestKey, best, found
}
// OTProvider resolves FontSpec using a FontLibrary and falls back to another
// Provider for unknown families.
type OTProvider struct {
	Lib      *FontLibrary
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.Size <= 0 {
		spec.Size = 12
	}
	if f := p.Lib.find(spec); f != nil {
		// DPI 72 makes Size a pixel size
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.Size, DPI: 72, Hinting: font.HintingFull})
		if err == nil {
			return face, metricsOf(face)
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
