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

// Package preref implements the pre-refinement pipeline: separable
// bilateral denoise, CLAHE, and unsharp mask, applied in that order to
// clean an input image before downstream work.
package preref

import "math"

const maxRadius = 7

// BilateralSeparable denoises rgba in place using two 1-D passes
// (horizontal then vertical). Spatial weights are precomputed into a
// length-(2r+1) table; range weights into a 256-entry table keyed by
// the max-channel absolute difference. Border pixels use a truncated
// kernel (no clamp, no reflect): the denominator only counts valid
// taps. Radius is capped at 7. Alpha is untouched.
func BilateralSeparable(rgba []byte, w, h, radius int) {
	r := radius
	if r > maxRadius {
		r = maxRadius
	}
	if r <= 0 {
		return
	}

	sigmaS := float32(r)
	sigmaR := float32(30.0)
	kernelLen := 2*r + 1

	inv2ss := float32(-0.5) / (sigmaS * sigmaS)
	spatialW := make([]float32, kernelLen)
	for i := 0; i < kernelLen; i++ {
		d := float32(i - r)
		spatialW[i] = float32(math.Exp(float64(inv2ss * d * d)))
	}

	inv2sr := float32(-0.5) / (sigmaR * sigmaR)
	var rangeW [256]float32
	for d := 0; d < 256; d++ {
		rangeW[d] = float32(math.Exp(float64(inv2sr * float32(d*d))))
	}

	npx := w * h
	tmp := make([]byte, npx*4)
	copy(tmp, rgba)

	bilateralPass(tmp, rgba, w, h, r, spatialW, rangeW[:], true)
	bilateralPass(rgba, tmp, w, h, r, spatialW, rangeW[:], false)
}

// bilateralPass runs one 1-D separable bilateral pass, horizontal when
// horiz is true. Reads from src, writes RGB (not alpha) into dst.
func bilateralPass(dst, src []byte, w, h, r int, spatialW, rangeW []float32, horiz bool) {
	kernelLen := len(spatialW)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ci := (y*w + x) * 4
			cr := int(src[ci])
			cg := int(src[ci+1])
			cb := int(src[ci+2])

			var sr, sg, sb, sw float32
			for ki := 0; ki < kernelLen; ki++ {
				var nx, ny int
				if horiz {
					nx = x + ki - r
					ny = y
				} else {
					nx = x
					ny = y + ki - r
				}
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				ni := (ny*w + nx) * 4
				nr := int(src[ni])
				ng := int(src[ni+1])
				nb := int(src[ni+2])

				diff := absInt(cr - nr)
				if d := absInt(cg - ng); d > diff {
					diff = d
				}
				if d := absInt(cb - nb); d > diff {
					diff = d
				}
				if diff > 255 {
					diff = 255
				}

				wt := spatialW[ki] * rangeW[diff]
				sr += float32(nr) * wt
				sg += float32(ng) * wt
				sb += float32(nb) * wt
				sw += wt
			}

			if sw > 0 {
				inv := 1 / sw
				dst[ci] = byteClamp(sr * inv)
				dst[ci+1] = byteClamp(sg * inv)
				dst[ci+2] = byteClamp(sb * inv)
			}
			dst[ci+3] = src[ci+3]
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func byteClamp(v float32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}
