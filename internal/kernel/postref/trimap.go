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

// Package postref implements the post-refinement (matting) pipeline:
// trimap generation, fast guided filter, shared matting, Scharr edge
// refinement, Poisson SOR relaxation, and alpha feathering.
package postref

const (
	TrimapBackground = 0
	TrimapUnknown    = 128
	TrimapForeground = 255
)

// BuildTrimap labels every pixel of an [0,1] alpha plane as definite
// background, definite foreground, or unknown via a multi-source BFS
// distance transform. Seeds are pixels with a 4-neighbor alpha jump
// >0.3, or pixels themselves in the (0.05,0.95) transition range.
// Distances beyond radius are not propagated.
func BuildTrimap(alpha []float32, w, h, radius int) []byte {
	npx := w * h
	dist := make([]int, npx)
	for i := range dist {
		dist[i] = -1
	}

	queue := make([]int, 0, npx)

	isSeed := func(idx, x, y int) bool {
		a := alpha[idx]
		if a > 0.05 && a < 0.95 {
			return true
		}
		if x > 0 && absF32(a-alpha[idx-1]) > 0.3 {
			return true
		}
		if x < w-1 && absF32(a-alpha[idx+1]) > 0.3 {
			return true
		}
		if y > 0 && absF32(a-alpha[idx-w]) > 0.3 {
			return true
		}
		if y < h-1 && absF32(a-alpha[idx+w]) > 0.3 {
			return true
		}
		return false
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if isSeed(idx, x, y) {
				dist[idx] = 0
				queue = append(queue, idx)
			}
		}
	}

	for qi := 0; qi < len(queue); qi++ {
		idx := queue[qi]
		x := idx % w
		y := idx / w
		d := dist[idx]
		if d >= radius {
			continue
		}

		tryRelax := func(nidx int) {
			if dist[nidx] == -1 || dist[nidx] > d+1 {
				dist[nidx] = d + 1
				queue = append(queue, nidx)
			}
		}
		if x > 0 {
			tryRelax(idx - 1)
		}
		if x < w-1 {
			tryRelax(idx + 1)
		}
		if y > 0 {
			tryRelax(idx - w)
		}
		if y < h-1 {
			tryRelax(idx + w)
		}
	}

	out := make([]byte, npx)
	for i := 0; i < npx; i++ {
		switch {
		case dist[i] >= 0 && dist[i] <= radius:
			out[i] = TrimapUnknown
		case alpha[i] >= 0.95:
			out[i] = TrimapForeground
		case alpha[i] <= 0.05:
			out[i] = TrimapBackground
		default:
			out[i] = TrimapUnknown
		}
	}
	return out
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
