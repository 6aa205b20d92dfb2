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

package prim

import (
	"math"
	"testing"
)

func TestLum601FixedMatchesShiftFormula(t *testing.T) {
	got := Lum601Fixed(100, 150, 200)
	want := uint8((uint32(100)*77 + uint32(150)*150 + uint32(200)*29) >> 8)
	if got != want {
		t.Errorf("Lum601Fixed(100,150,200)=%d; want %d", got, want)
	}
}

func TestLum709White(t *testing.T) {
	got := Lum709(255, 255, 255)
	if math.Abs(float64(got)-255) > 1e-3 {
		t.Errorf("Lum709(255,255,255)=%f; want ~255", got)
	}
}

func TestBoxBlurSeparableFlatIsUnchanged(t *testing.T) {
	w, h := 9, 9
	data := make([]float32, w*h)
	for i := range data {
		data[i] = 42
	}
	blurred := BoxBlurSeparable(data, w, h, 2)
	for i, v := range blurred {
		if math.Abs(float64(v)-42) > 1e-3 {
			t.Errorf("blurred[%d]=%f; want 42 on flat input", i, v)
		}
	}
}

func TestBoxBlurSeparableZeroRadiusCopies(t *testing.T) {
	w, h := 4, 4
	data := make([]float32, w*h)
	for i := range data {
		data[i] = float32(i)
	}
	blurred := BoxBlurSeparable(data, w, h, 0)
	for i := range data {
		if blurred[i] != data[i] {
			t.Errorf("radius=0 blurred[%d]=%f; want %f", i, blurred[i], data[i])
		}
	}
}

func TestBoxBlurSeparableCornerUsesTruncatedWindow(t *testing.T) {
	// 3x3 image, single spike at the corner. With radius 1 the window
	// at (0,0) only ever covers the 2x2 block, so the corner's own
	// contribution is divided by 4, not 9.
	w, h := 3, 3
	data := make([]float32, w*h)
	data[0] = 9
	blurred := BoxBlurSeparable(data, w, h, 1)
	want := float32(9) / 4
	if math.Abs(float64(blurred[0]-want)) > 1e-4 {
		t.Errorf("corner blurred=%f; want %f", blurred[0], want)
	}
}

func TestIntegralImageBoxMeanMatchesBruteForce(t *testing.T) {
	w, h := 6, 5
	data := make([]float32, w*h)
	for i := range data {
		data[i] = float32(i%7) - 3
	}
	sat := IntegralImage(data, w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := 2
			x0, y0 := maxInt(0, x-r), maxInt(0, y-r)
			x1, y1 := minInt(w-1, x+r), minInt(h-1, y+r)

			var sum float64
			count := 0
			for yy := y0; yy <= y1; yy++ {
				for xx := x0; xx <= x1; xx++ {
					sum += float64(data[yy*w+xx])
					count++
				}
			}
			want := sum / float64(count)
			got := BoxMean(sat, w, h, x, y, r)
			if math.Abs(got-want) > 1e-6 {
				t.Errorf("BoxMean(%d,%d)=%f; want %f", x, y, got, want)
			}
		}
	}
}

func TestDownsampleUpsampleRoundTripOnFlat(t *testing.T) {
	w, h := 20, 16
	data := make([]float32, w*h)
	for i := range data {
		data[i] = 7.5
	}
	down, sw, sh := DownsampleBoxAverage(data, w, h, 4)
	up := UpsampleBilinear(down, sw, sh, w, h)
	for i, v := range up {
		if math.Abs(float64(v)-7.5) > 1e-3 {
			t.Errorf("roundtrip[%d]=%f; want 7.5", i, v)
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
