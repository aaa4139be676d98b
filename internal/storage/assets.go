/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"io"
	"os"
	"path/filepath"
)

// ImportAsset copies src into the assets folder of the deck at root and
// returns the slash-separated path relative to root. An existing asset of the
// same name is reused.
func ImportAsset(root, src string) (string, error) {
	rel := filepath.Join(AssetsDirName, filepath.Base(src))
	dst := filepath.Join(root, rel)
	if _, err := os.Stat(dst); err == nil {
		return filepath.ToSlash(rel), nil
	}
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	return filepath.ToSlash(rel), out.Close()
}
