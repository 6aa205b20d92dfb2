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

import (
	"github.com/mlnoga/imgcore/internal/kernel/prim"
	"gonum.org/v1/gonum/stat"
)

const (
	ssimC1 = 0.01 * 255 * 0.01 * 255
	ssimC2 = 0.03 * 255 * 0.03 * 255
)

// CalculateSSIM scores structural similarity between a and b over
// non-overlapping 8x8 BT.709-luminance windows (trailing partial
// rows/columns are ignored), averaging per-window SSIM computed from
// gonum/stat's mean, variance and covariance. Returns 0 on a size
// mismatch, 1 if there are zero whole windows.
func CalculateSSIM(a, b []byte, w, h int) float32 {
	if len(a) != w*h*4 || len(b) != w*h*4 {
		return 0
	}

	lumA := lum709Plane(a, w, h)
	lumB := lum709Plane(b, w, h)

	blocksX := w / 8
	blocksY := h / 8
	if blocksX == 0 || blocksY == 0 {
		return 1
	}

	var sum float64
	var windowA, windowB [64]float64

	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			n := 0
			for dy := 0; dy < 8; dy++ {
				row := (by*8+dy)*w + bx*8
				for dx := 0; dx < 8; dx++ {
					windowA[n] = float64(lumA[row+dx])
					windowB[n] = float64(lumB[row+dx])
					n++
				}
			}

			muA, varA := stat.PopMeanVariance(windowA[:], nil)
			muB, varB := stat.PopMeanVariance(windowB[:], nil)
			covAB := stat.PopCovariance(windowA[:], windowB[:], nil)

			num := (2*muA*muB + ssimC1) * (2*covAB + ssimC2)
			den := (muA*muA + muB*muB + ssimC1) * (varA + varB + ssimC2)
			sum += num / den
		}
	}

	return float32(sum / float64(blocksX*blocksY))
}

// lum709Plane builds a BT.709 luminance plane in [0,255] scale, the
// range SSIM's C1/C2 constants are defined against.
func lum709Plane(rgba []byte, w, h int) []float32 {
	npx := w * h
	plane := make([]float32, npx)
	for i := 0; i < npx; i++ {
		off := i * 4
		plane[i] = prim.Lum709(rgba[off], rgba[off+1], rgba[off+2])
	}
	return plane
}
