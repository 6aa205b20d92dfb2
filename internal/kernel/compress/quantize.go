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

import "sort"

// PaletteEntry is one centroid color of a quantized palette.
type PaletteEntry struct {
	R, G, B byte
}

type colorPoint struct {
	r, g, b byte
}

// bucket holds the slice of point indices belonging to one median-cut
// partition, and its per-channel min/max for axis selection.
type bucket struct {
	indices                    []int
	minR, maxR, minG, maxG, minB, maxB byte
}

func newBucket(indices []int, pts []colorPoint) bucket {
	b := bucket{indices: indices}
	p := pts[indices[0]]
	b.minR, b.maxR = p.r, p.r
	b.minG, b.maxG = p.g, p.g
	b.minB, b.maxB = p.b, p.b
	for _, idx := range indices[1:] {
		p := pts[idx]
		if p.r < b.minR {
			b.minR = p.r
		}
		if p.r > b.maxR {
			b.maxR = p.r
		}
		if p.g < b.minG {
			b.minG = p.g
		}
		if p.g > b.maxG {
			b.maxG = p.g
		}
		if p.b < b.minB {
			b.minB = p.b
		}
		if p.b > b.maxB {
			b.maxB = p.b
		}
	}
	return b
}

// QuantizeColors builds a palette of at most maxColors (clamped to
// [2,256]) colors via median-cut, then remaps rgba to the nearest
// palette color with Floyd-Steinberg error diffusion. Returns the
// input unchanged if maxColors<2 or the buffer size mismatches.
func QuantizeColors(rgba []byte, w, h, maxColors int) []byte {
	if len(rgba) != w*h*4 {
		return rgba
	}
	if maxColors < 2 {
		return rgba
	}

	palette := BuildPalette(rgba, w, h, maxColors)

	out := make([]byte, len(rgba))
	copy(out, rgba)
	ditherRemap(rgba, out, w, h, palette)
	return out
}

// BuildPalette runs the median-cut bucket split that QuantizeColors
// uses internally and returns just the resulting centroid palette,
// for callers that want to report on it (see ReportPalette in
// report.go) without redoing the dithered remap.
func BuildPalette(rgba []byte, w, h, maxColors int) []PaletteEntry {
	if maxColors > 256 {
		maxColors = 256
	}

	npx := w * h
	pts := make([]colorPoint, npx)
	indices := make([]int, npx)
	for i := 0; i < npx; i++ {
		off := i * 4
		pts[i] = colorPoint{rgba[off], rgba[off+1], rgba[off+2]}
		indices[i] = i
	}

	buckets := []bucket{newBucket(indices, pts)}

	for len(buckets) < maxColors {
		splitIdx := -1
		bestCount := 1
		for i, b := range buckets {
			if len(b.indices) > bestCount {
				bestCount = len(b.indices)
				splitIdx = i
			}
		}
		if splitIdx < 0 {
			break
		}

		b := buckets[splitIdx]
		rangeR := int(b.maxR) - int(b.minR)
		rangeG := int(b.maxG) - int(b.minG)
		rangeB := int(b.maxB) - int(b.minB)

		sort.Slice(b.indices, func(i, j int) bool {
			pi, pj := pts[b.indices[i]], pts[b.indices[j]]
			switch {
			case rangeR >= rangeG && rangeR >= rangeB:
				return pi.r < pj.r
			case rangeG >= rangeB:
				return pi.g < pj.g
			default:
				return pi.b < pj.b
			}
		})

		mid := len(b.indices) / 2
		left := b.indices[:mid]
		right := b.indices[mid:]

		buckets[splitIdx] = buckets[len(buckets)-1]
		buckets = buckets[:len(buckets)-1]
		if len(left) > 0 {
			buckets = append(buckets, newBucket(left, pts))
		}
		if len(right) > 0 {
			buckets = append(buckets, newBucket(right, pts))
		}
	}

	palette := make([]PaletteEntry, len(buckets))
	for i, b := range buckets {
		var sumR, sumG, sumB int
		for _, idx := range b.indices {
			p := pts[idx]
			sumR += int(p.r)
			sumG += int(p.g)
			sumB += int(p.b)
		}
		n := len(b.indices)
		if n < 1 {
			n = 1
		}
		palette[i] = PaletteEntry{byte(sumR / n), byte(sumG / n), byte(sumB / n)}
	}
	return palette
}

// ditherRemap performs the Floyd-Steinberg error-diffusion remap of
// src onto dst's palette-quantized colors, writing the result into
// dst. Alpha is preserved from src.
func ditherRemap(src, dst []byte, w, h int, palette []PaletteEntry) {
	errR := make([]float32, w*h)
	errG := make([]float32, w*h)
	errB := make([]float32, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			off := idx * 4

			r := clamp255(float32(src[off]) + errR[idx])
			g := clamp255(float32(src[off+1]) + errG[idx])
			b := clamp255(float32(src[off+2]) + errB[idx])

			best := nearestPaletteColor(r, g, b, palette)

			dst[off] = best.R
			dst[off+1] = best.G
			dst[off+2] = best.B
			dst[off+3] = src[off+3]

			eR := r - float32(best.R)
			eG := g - float32(best.G)
			eB := b - float32(best.B)

			if x+1 < w {
				diffuse(errR, errG, errB, idx+1, eR, eG, eB, 7.0/16)
			}
			if y+1 < h {
				if x-1 >= 0 {
					diffuse(errR, errG, errB, idx+w-1, eR, eG, eB, 3.0/16)
				}
				diffuse(errR, errG, errB, idx+w, eR, eG, eB, 5.0/16)
				if x+1 < w {
					diffuse(errR, errG, errB, idx+w+1, eR, eG, eB, 1.0/16)
				}
			}
		}
	}
}

// clamp255 restricts an accumulated error-diffused channel value to
// [0,255] before the nearest-color search. The value stays fractional
// (it is not truncated to a byte), and the diffused error is measured
// from this clamped value.
func clamp255(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func diffuse(errR, errG, errB []float32, idx int, eR, eG, eB, weight float32) {
	errR[idx] += eR * weight
	errG[idx] += eG * weight
	errB[idx] += eB * weight
}

// nearestPaletteColor finds the palette entry minimizing the weighted
// squared distance 2*dR^2 + 4*dG^2 + 3*dB^2.
func nearestPaletteColor(r, g, b float32, palette []PaletteEntry) PaletteEntry {
	best := palette[0]
	bestDist := weightedDist(r, g, b, best)
	for _, p := range palette[1:] {
		d := weightedDist(r, g, b, p)
		if d < bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}

func weightedDist(r, g, b float32, p PaletteEntry) float32 {
	dr := r - float32(p.R)
	dg := g - float32(p.G)
	db := b - float32(p.B)
	return 2*dr*dr + 4*dg*dg + 3*db*db
}
