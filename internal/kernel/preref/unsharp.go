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

import "github.com/mlnoga/imgcore/internal/kernel/prim"

// UnsharpMask sharpens rgba in place via a radius-1 separable box blur
// of the BT.601 luminance plane: new_lum = clamp(lum + strength*(lum -
// blurred), 0, 255), then rescales RGB by the fixed-point ratio
// new_lum/old_lum. Pixels with old_lum<1 are left unchanged.
func UnsharpMask(rgba []byte, w, h int, strength float32) {
	npx := w * h
	lum := make([]float32, npx)
	for i := 0; i < npx; i++ {
		off := i * 4
		lum[i] = prim.Lum601Float(rgba[off], rgba[off+1], rgba[off+2])
	}

	blurred := prim.BoxBlurSeparable(lum, w, h, 1)

	for i := 0; i < npx; i++ {
		oldLum := lum[i]
		if oldLum < 1.0 {
			continue
		}

		detail := oldLum - blurred[i]
		newLum := oldLum + strength*detail
		if newLum < 0 {
			newLum = 0
		}
		if newLum > 255 {
			newLum = 255
		}

		scaleFP := (uint32(newLum) << 16) / uint32(oldLum)
		off := i * 4
		rgba[off] = clampShift16(uint32(rgba[off]) * scaleFP)
		rgba[off+1] = clampShift16(uint32(rgba[off+1]) * scaleFP)
		rgba[off+2] = clampShift16(uint32(rgba[off+2]) * scaleFP)
	}
}
