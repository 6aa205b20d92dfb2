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

// DownsampleBoxAverage downsamples a w*h plane by factor s using box
// averaging. The last row/column of tiles may be partial; their mean
// uses the actual tap count, not s*s.
func DownsampleBoxAverage(data []float32, w, h, s int) (out []float32, sw, sh int) {
	sw = (w + s - 1) / s
	sh = (h + s - 1) / s
	out = make([]float32, sw*sh)

	for sy := 0; sy < sh; sy++ {
		y0 := sy * s
		y1 := y0 + s
		if y1 > h {
			y1 = h
		}
		for sx := 0; sx < sw; sx++ {
			x0 := sx * s
			x1 := x0 + s
			if x1 > w {
				x1 = w
			}
			var sum float32
			for y := y0; y < y1; y++ {
				row := y * w
				for x := x0; x < x1; x++ {
					sum += data[row+x]
				}
			}
			count := float32((y1 - y0) * (x1 - x0))
			out[sy*sw+sx] = sum / count
		}
	}
	return out, sw, sh
}

// UpsampleBilinear upsamples a sw*sh plane to w*h using pixel-center
// aligned bilinear interpolation: f = (i+0.5)*sw/w - 0.5.
func UpsampleBilinear(data []float32, sw, sh, w, h int) []float32 {
	out := make([]float32, w*h)
	scaleX := float32(sw) / float32(w)
	scaleY := float32(sh) / float32(h)

	for y := 0; y < h; y++ {
		fy := (float32(y)+0.5)*scaleY - 0.5
		y0 := int(fy)
		if fy < 0 {
			y0 = 0
		}
		if y0 > sh-1 {
			y0 = sh - 1
		}
		y1 := y0 + 1
		if y1 > sh-1 {
			y1 = sh - 1
		}
		wy := fy - float32(y0)
		wy = ClampUnit(wy)
		wyInv := 1 - wy

		for x := 0; x < w; x++ {
			fx := (float32(x)+0.5)*scaleX - 0.5
			x0 := int(fx)
			if fx < 0 {
				x0 = 0
			}
			if x0 > sw-1 {
				x0 = sw - 1
			}
			x1 := x0 + 1
			if x1 > sw-1 {
				x1 = sw - 1
			}
			wx := fx - float32(x0)
			wx = ClampUnit(wx)

			top := data[y0*sw+x0]*(1-wx) + data[y0*sw+x1]*wx
			bottom := data[y1*sw+x0]*(1-wx) + data[y1*sw+x1]*wx
			out[y*w+x] = top*wyInv + bottom*wy
		}
	}
	return out
}
