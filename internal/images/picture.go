/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package images

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"dekk/internal/domain"
)

// PictureWidth is the width of pictures added from search or files.
const PictureWidth = 600

// PictureFor builds picture input for src at the seeding width, with the
// height following aspect (width/height).
func PictureFor(src string, aspect float64) domain.PictureInput {
	if aspect <= 0 || math.IsInf(aspect, 0) || math.IsNaN(aspect) {
		aspect = 1
	}
	return domain.PictureInput{
		Src:    domain.Ptr(src),
		Width:  domain.Ptr(float64(PictureWidth)),
		Height: domain.Ptr(PictureWidth / aspect),
	}
}

// PictureForPhoto seeds a picture from a search hit's regular rendition.
func PictureForPhoto(p Photo) domain.PictureInput {
	return PictureFor(p.URLs.Regular, p.Aspect())
}

// DetectAspect reads only the image header of r and returns width/height.
func DetectAspect(r io.Reader) (float64, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return 0, "", fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, format, fmt.Errorf("image has no size")
	}
	return float64(cfg.Width) / float64(cfg.Height), format, nil
}

// PictureForFile seeds a picture from a local image file.
func PictureForFile(path string) (domain.PictureInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.PictureInput{}, err
	}
	defer f.Close()
	aspect, _, err := DetectAspect(f)
	if err != nil {
		return domain.PictureInput{}, fmt.Errorf("%s: %w", path, err)
	}
	return PictureFor(path, aspect), nil
}
