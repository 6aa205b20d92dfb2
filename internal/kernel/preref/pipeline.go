// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package preref

// PreProcess runs the pre-refinement pipeline: separable bilateral
// denoise, CLAHE, unsharp mask, in that order, all in place on a copy
// of rgba. Any stage whose parameter falls in its no-op range is
// skipped entirely. Returns rgba unchanged if its length doesn't match
// w*h*4.
func PreProcess(rgba []byte, w, h int, claheClip float32, claheGrid int, denoiseRadius int, sharpenStrength float32) []byte {
	if len(rgba) != w*h*4 {
		return rgba
	}

	buf := make([]byte, len(rgba))
	copy(buf, rgba)

	// Stage 1: edge-preserving bilateral denoise.
	if denoiseRadius > 0 {
		BilateralSeparable(buf, w, h, denoiseRadius)
	}

	// Stage 2: CLAHE with bilinearly interpolated tile CDFs.
	if claheClip > 1.0 && claheGrid >= 2 {
		CLAHE(buf, w, h, claheClip, claheGrid)
	}

	// Stage 3: unsharp mask via box-blur difference.
	if sharpenStrength > 0.0 {
		UnsharpMask(buf, w, h, sharpenStrength)
	}

	return buf
}
