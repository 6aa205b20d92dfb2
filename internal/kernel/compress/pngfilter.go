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

const pngStride = 4

// PNG filter type codes, in ascending tie-break priority order.
const (
	filterNone = iota
	filterSub
	filterUp
	filterAverage
	filterPaeth
)

// SelectPNGFilters picks the minimum-cost PNG predictor per row (one
// of None/Sub/Up/Average/Paeth), cost being the sum of absolute
// signed-int8 magnitudes of the filtered bytes, ties favoring the
// lowest filter index. Returns h bytes, or a zeroed length-h vector on
// a size mismatch.
func SelectPNGFilters(rgba []byte, w, h int) []byte {
	out := make([]byte, h)
	if len(rgba) != w*h*4 {
		return out
	}

	rowBytes := w * pngStride
	prevRow := make([]byte, rowBytes)
	filtered := make([]byte, rowBytes)

	for y := 0; y < h; y++ {
		row := rgba[y*rowBytes : (y+1)*rowBytes]

		bestFilter := filterNone
		bestCost := -1

		for f := filterNone; f <= filterPaeth; f++ {
			applyPNGFilter(filtered, row, prevRow, f)
			cost := filterCost(filtered)
			if bestCost < 0 || cost < bestCost {
				bestCost = cost
				bestFilter = f
			}
		}

		out[y] = byte(bestFilter)
		copy(prevRow, row)
	}

	return out
}

func filterCost(filtered []byte) int {
	cost := 0
	for _, v := range filtered {
		cost += absInt8(int8(v))
	}
	return cost
}

func absInt8(v int8) int {
	if v < 0 {
		return -int(v)
	}
	return int(v)
}

// applyPNGFilter writes the PNG-predicted residual of row (given the
// previous row, or an all-zero row for y==0) into dst, using the
// standard byte-wise predictors with channel stride 4.
func applyPNGFilter(dst, row, prevRow []byte, filter int) {
	for i, cur := range row {
		var left, up, upLeft byte
		if i >= pngStride {
			left = row[i-pngStride]
			upLeft = prevRow[i-pngStride]
		}
		up = prevRow[i]

		switch filter {
		case filterNone:
			dst[i] = cur
		case filterSub:
			dst[i] = cur - left
		case filterUp:
			dst[i] = cur - up
		case filterAverage:
			dst[i] = cur - byte((int(left)+int(up))/2)
		case filterPaeth:
			dst[i] = cur - paethPredictor(left, up, upLeft)
		}
	}
}

func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := absIntDiff(p, int(a))
	pb := absIntDiff(p, int(b))
	pc := absIntDiff(p, int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func absIntDiff(a, b int) int {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
