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

package postref

import "github.com/mlnoga/imgcore/internal/kernel/prim"

// FastGuidedFilter smooths plane p edge-preservingly against guide
// plane I (both length w*h, alpha/guide range [0,1]). Coefficients are
// computed at a box-averaged 1/s resolution and bilinearly upsampled;
// when s<=1 the whole computation runs at full resolution.
func FastGuidedFilter(guide, p []float32, w, h, radius, subsample int, eps float32) []float32 {
	s := subsample
	if s <= 1 {
		return guidedCoefficientsFullRes(guide, p, w, h, radius, eps)
	}

	lowI, sw, sh := prim.DownsampleBoxAverage(guide, w, h, s)
	lowP, _, _ := prim.DownsampleBoxAverage(p, w, h, s)

	rs := radius / s
	if rs < 1 {
		rs = 1
	}

	a, b := guidedCoefficients(lowI, lowP, sw, sh, rs, eps)

	fullA := prim.UpsampleBilinear(a, sw, sh, w, h)
	fullB := prim.UpsampleBilinear(b, sw, sh, w, h)

	out := make([]float32, w*h)
	for i := range out {
		out[i] = prim.ClampUnit(fullA[i]*guide[i] + fullB[i])
	}
	return out
}

func guidedCoefficientsFullRes(guide, p []float32, w, h, radius int, eps float32) []float32 {
	a, b := guidedCoefficients(guide, p, w, h, radius, eps)
	out := make([]float32, w*h)
	for i := range out {
		out[i] = prim.ClampUnit(a[i]*guide[i] + b[i])
	}
	return out
}

// guidedCoefficients computes the per-pixel linear coefficients (a,b)
// of the guided filter at the resolution of I/p via integral-image box
// means over a (2r+1)^2 window, and returns the box means of a and b
// over that same window rather than the raw coefficients.
func guidedCoefficients(I, p []float32, w, h, r int, eps float32) (a, b []float32) {
	npx := w * h
	Ip := make([]float32, npx)
	II := make([]float32, npx)
	for i := 0; i < npx; i++ {
		Ip[i] = I[i] * p[i]
		II[i] = I[i] * I[i]
	}

	satI := prim.IntegralImage(I, w, h)
	satP := prim.IntegralImage(p, w, h)
	satIp := prim.IntegralImage(Ip, w, h)
	satII := prim.IntegralImage(II, w, h)

	a = make([]float32, npx)
	b = make([]float32, npx)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			meanI := prim.BoxMean(satI, w, h, x, y, r)
			meanP := prim.BoxMean(satP, w, h, x, y, r)
			meanIp := prim.BoxMean(satIp, w, h, x, y, r)
			meanII := prim.BoxMean(satII, w, h, x, y, r)

			cov := meanIp - meanI*meanP
			variance := meanII - meanI*meanI

			coeffA := float32(cov / (variance + float64(eps)))
			coeffB := float32(meanP - float64(coeffA)*meanI)
			a[idx] = coeffA
			b[idx] = coeffB
		}
	}

	satA := prim.IntegralImage(a, w, h)
	satB := prim.IntegralImage(b, w, h)
	meanA := make([]float32, npx)
	meanB := make([]float32, npx)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			meanA[idx] = float32(prim.BoxMean(satA, w, h, x, y, r))
			meanB[idx] = float32(prim.BoxMean(satB, w, h, x, y, r))
		}
	}
	return meanA, meanB
}
