/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"strconv"
	"strings"
)

// ParseVariant derives weight and style from a provider variant name such as
// "regular", "italic", "700" or "300italic". Unparsable weights fall back to 400.
func ParseVariant(variant string) (weight int, style FontStyle) {
	style = FontStyleNormal
	if strings.HasSuffix(variant, "italic") {
		style = FontStyleItalic
	}
	if variant == "regular" || variant == "italic" {
		return DefaultFontWeight, style
	}
	// leading digits only, like parseInt
	n, digits := 0, 0
	for _, r := range variant {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
	}
	if digits == 0 {
		return DefaultFontWeight, style
	}
	return n, style
}

// VariantFor is the inverse of ParseVariant.
func VariantFor(weight int, style FontStyle) string {
	italic := style == FontStyleItalic
	if weight == DefaultFontWeight || weight == 0 {
		if italic {
			return "italic"
		}
		return "regular"
	}
	v := strconv.Itoa(weight)
	if italic {
		v += "italic"
	}
	return v
}
