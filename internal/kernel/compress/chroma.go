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

import "github.com/mlnoga/imgcore/internal/kernel/prim"

// ChromaSmooth softens near-flat luminance regions in place: for each
// interior pixel whose max BT.709 luminance difference against its 4
// neighbors is below 30, RGB is lerped toward the mean of its 3x3
// neighborhood by blend = clamp(strength*0.3, 0, 0.5). Border pixels
// are left untouched. Alpha is preserved.
func ChromaSmooth(rgba []byte, w, h int, strength float32) {
	if w < 3 || h < 3 {
		return
	}

	blend := strength * 0.3
	if blend < 0 {
		blend = 0
	}
	if blend > 0.5 {
		blend = 0.5
	}
	if blend == 0 {
		return
	}

	lum := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * 4
			lum[y*w+x] = prim.Lum709(rgba[off], rgba[off+1], rgba[off+2])
		}
	}

	src := make([]byte, len(rgba))
	copy(src, rgba)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			idx := y*w + x
			self := lum[idx]

			maxDiff := absF32(self - lum[idx-1])
			if d := absF32(self - lum[idx+1]); d > maxDiff {
				maxDiff = d
			}
			if d := absF32(self - lum[idx-w]); d > maxDiff {
				maxDiff = d
			}
			if d := absF32(self - lum[idx+w]); d > maxDiff {
				maxDiff = d
			}
			if maxDiff >= 30 {
				continue
			}

			var sumR, sumG, sumB float32
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					off := ((y+dy)*w + (x + dx)) * 4
					sumR += float32(src[off])
					sumG += float32(src[off+1])
					sumB += float32(src[off+2])
				}
			}
			meanR := sumR / 9
			meanG := sumG / 9
			meanB := sumB / 9

			off := idx * 4
			invBlend := 1 - blend
			rgba[off] = byteClamp(invBlend*float32(src[off]) + blend*meanR)
			rgba[off+1] = byteClamp(invBlend*float32(src[off+1]) + blend*meanG)
			rgba[off+2] = byteClamp(invBlend*float32(src[off+2]) + blend*meanB)
		}
	}
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
