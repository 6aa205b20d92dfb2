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

package compress

// OptimizeForCompression runs the compression-prep pipeline: a 2-pass
// clamped-border bilateral denoise followed by an optional chroma
// smooth, on a copy of rgba. Denoise radius and strength, and whether
// chroma smoothing runs at all, derive from strength per §6's guard
// table. Returns rgba unchanged if its length doesn't match w*h*4.
func OptimizeForCompression(rgba []byte, w, h int, strength float32) []byte {
	if len(rgba) != w*h*4 {
		return rgba
	}

	buf := make([]byte, len(rgba))
	copy(buf, rgba)

	radius := 1
	if strength > 0.3 {
		radius = 2
	}
	denoiseStrength := strength * 0.5
	if denoiseStrength < 0.05 {
		denoiseStrength = 0.05
	}
	if denoiseStrength > 0.4 {
		denoiseStrength = 0.4
	}

	// Stage 1: two-pass clamped-border bilateral denoise.
	BilateralClamped(buf, w, h, radius, denoiseStrength)
	BilateralClamped(buf, w, h, radius, denoiseStrength)

	// Stage 2: chroma smoothing on near-flat luminance regions.
	if strength > 0.5 {
		ChromaSmooth(buf, w, h, strength)
	}

	return buf
}
