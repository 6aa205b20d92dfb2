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

// Package compress implements the compression-optimization pipeline:
// clamped-border bilateral denoise, chroma smoothing, median-cut
// quantization with Floyd-Steinberg dithering, SSIM scoring, and PNG
// per-row filter selection.
package compress

import "math"

// BilateralClamped denoises rgba in place using two 1-D separable
// passes. Unlike the pre-refinement variant, the range term is the sum
// of squared RGB differences (computed inline, not LUT-indexed) and
// border samples are clamped to the edge (replicate) rather than
// skipped. sigma_s=radius, sigma_r=max(strength*255,1). Alpha is
// preserved per-pixel.
func BilateralClamped(rgba []byte, w, h, radius int, strength float32) {
	if radius <= 0 {
		return
	}

	sigmaS := float32(radius)
	sigmaR := strength * 255
	if sigmaR < 1 {
		sigmaR = 1
	}

	kernelLen := 2*radius + 1
	inv2ss := float32(-0.5) / (sigmaS * sigmaS)
	spatialW := make([]float32, kernelLen)
	for i := 0; i < kernelLen; i++ {
		d := float32(i - radius)
		spatialW[i] = float32(math.Exp(float64(inv2ss * d * d)))
	}
	inv2sr := float32(-0.5) / (sigmaR * sigmaR)

	npx := w * h
	tmp := make([]byte, npx*4)
	copy(tmp, rgba)

	bilateralClampedPass(tmp, rgba, w, h, radius, spatialW, inv2sr, true)
	bilateralClampedPass(rgba, tmp, w, h, radius, spatialW, inv2sr, false)
}

func bilateralClampedPass(dst, src []byte, w, h, r int, spatialW []float32, inv2sr float32, horiz bool) {
	kernelLen := len(spatialW)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ci := (y*w + x) * 4
			cr := float32(src[ci])
			cg := float32(src[ci+1])
			cb := float32(src[ci+2])

			var sr, sg, sb, sw float32
			for ki := 0; ki < kernelLen; ki++ {
				var nx, ny int
				if horiz {
					nx = clampCoord(x+ki-r, w)
					ny = y
				} else {
					nx = x
					ny = clampCoord(y+ki-r, h)
				}
				ni := (ny*w + nx) * 4
				nr := float32(src[ni])
				ng := float32(src[ni+1])
				nb := float32(src[ni+2])

				dr := cr - nr
				dg := cg - ng
				db := cb - nb
				sqDiff := dr*dr + dg*dg + db*db

				wt := spatialW[ki] * float32(math.Exp(float64(inv2sr*sqDiff)))
				sr += nr * wt
				sg += ng * wt
				sb += nb * wt
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

func clampCoord(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v >= limit {
		return limit - 1
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
	return byte(v)
}
