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

// CLAHE applies Contrast Limited Adaptive Histogram Equalization to
// rgba in place, using BT.601 fixed-point luminance for the per-tile
// integer histogram math and bilinear interpolation of per-tile CDF
// LUTs across tile boundaries. grid is clamped to >=2; an empty tile
// yields the identity LUT.
func CLAHE(rgba []byte, w, h int, clipLimit float32, grid int) {
	if grid < 2 {
		grid = 2
	}
	tileW := ceilDiv(w, grid)
	tileH := ceilDiv(h, grid)
	npx := w * h
	ntx, nty := grid, grid

	lum := make([]byte, npx)
	for i := 0; i < npx; i++ {
		off := i * 4
		lum[i] = prim.Lum601Fixed(rgba[off], rgba[off+1], rgba[off+2])
	}

	numTiles := ntx * nty
	cdfLUT := make([][256]byte, numTiles)

	for ty := 0; ty < nty; ty++ {
		for tx := 0; tx < ntx; tx++ {
			x0 := tx * tileW
			y0 := ty * tileH
			x1 := min(x0+tileW, w)
			y1 := min(y0+tileH, h)

			var hist [256]uint32
			var count uint32
			for y := y0; y < y1; y++ {
				row := y * w
				for x := x0; x < x1; x++ {
					hist[lum[row+x]]++
					count++
				}
			}

			lut := &cdfLUT[ty*ntx+tx]
			if count == 0 {
				for i := 0; i < 256; i++ {
					lut[i] = byte(i)
				}
				continue
			}

			clip := uint32(clipLimit * float32(count) / 256.0)
			if clip < 1 {
				clip = 1
			}
			var excess uint32
			for bin := 0; bin < 256; bin++ {
				if hist[bin] > clip {
					excess += hist[bin] - clip
					hist[bin] = clip
				}
			}
			perBin := excess / 256
			remainder := int(excess % 256)
			for i := 0; i < 256; i++ {
				hist[i] += perBin
				if i < remainder {
					hist[i]++
				}
			}

			invCount := float32(255.0) / float32(count)
			var cumulative uint32
			for i := 0; i < 256; i++ {
				cumulative += hist[i]
				v := float32(cumulative) * invCount
				if v > 255 {
					v = 255
				}
				lut[i] = byte(v)
			}
		}
	}

	invTileW := 1.0 / float32(tileW)
	invTileH := 1.0 / float32(tileH)

	for y := 0; y < h; y++ {
		fy := (float32(y)+0.5)*invTileH - 0.5
		ty0 := tileFloorClamp(fy, nty)
		ty1 := min(ty0+1, nty-1)
		wy := prim.ClampUnit(fy - float32(ty0))
		wyInv := 1 - wy
		row0 := ty0 * ntx
		row1 := ty1 * ntx

		for x := 0; x < w; x++ {
			fx := (float32(x)+0.5)*invTileW - 0.5
			tx0 := tileFloorClamp(fx, ntx)
			tx1 := min(tx0+1, ntx-1)
			wx := prim.ClampUnit(fx - float32(tx0))
			wxInv := 1 - wx

			idx := y*w + x
			l := lum[idx]

			c00 := float32(cdfLUT[row0+tx0][l])
			c10 := float32(cdfLUT[row0+tx1][l])
			c01 := float32(cdfLUT[row1+tx0][l])
			c11 := float32(cdfLUT[row1+tx1][l])

			newLum := (c00*wxInv+c10*wx)*wyInv + (c01*wxInv+c11*wx)*wy
			newLumU8 := byte(newLum)

			off := idx * 4
			oldLum := lum[idx]
			if oldLum > 0 {
				scaleFP := (uint32(newLumU8) << 16) / uint32(oldLum)
				rgba[off] = clampShift16(uint32(rgba[off]) * scaleFP)
				rgba[off+1] = clampShift16(uint32(rgba[off+1]) * scaleFP)
				rgba[off+2] = clampShift16(uint32(rgba[off+2]) * scaleFP)
			} else if newLumU8 > 0 {
				rgba[off] = newLumU8
				rgba[off+1] = newLumU8
				rgba[off+2] = newLumU8
			}
		}
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func tileFloorClamp(f float32, numTiles int) int {
	v := int(f)
	if f < 0 {
		v = 0
	}
	if v > numTiles-1 {
		v = numTiles - 1
	}
	return v
}

func clampShift16(v uint32) byte {
	r := v >> 16
	if r > 255 {
		r = 255
	}
	return byte(r)
}
