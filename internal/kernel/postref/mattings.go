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

import "sort"

const (
	spiralRadius = 25
	maxSamples   = 3
)

type spiralOffset struct {
	dx, dy int
}

// spiralOffsets lists every offset in [-25,25]^2 except (0,0), sorted
// ascending by squared Euclidean distance. Computed once and reused
// across all SharedMatting calls.
var spiralOffsets = buildSpiralOffsets()

func buildSpiralOffsets() []spiralOffset {
	offsets := make([]spiralOffset, 0, (2*spiralRadius+1)*(2*spiralRadius+1)-1)
	for dy := -spiralRadius; dy <= spiralRadius; dy++ {
		for dx := -spiralRadius; dx <= spiralRadius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			offsets = append(offsets, spiralOffset{dx, dy})
		}
	}
	sort.Slice(offsets, func(i, j int) bool {
		di := offsets[i].dx*offsets[i].dx + offsets[i].dy*offsets[i].dy
		dj := offsets[j].dx*offsets[j].dx + offsets[j].dy*offsets[j].dy
		return di < dj
	})
	return offsets
}

type colorSample struct {
	r, g, b float32
	distSq  int
}

// SharedMatting refines alpha in place for every pixel labeled unknown
// (trimap==128): it spiral-searches out to 25px for up to 3 foreground
// and 3 background color samples in rgba, picks the (F,B) compositing
// pair minimizing reconstruction error plus a distance penalty, and
// confidence-blends the resulting alpha estimate into the existing
// value.
func SharedMatting(alpha []float32, rgba []byte, trimap []byte, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if trimap[idx] != TrimapUnknown {
				continue
			}
			refineMattingPixel(alpha, rgba, trimap, w, h, x, y, idx)
		}
	}
}

func refineMattingPixel(alpha []float32, rgba, trimap []byte, w, h, x, y, idx int) {
	var fg, bg []colorSample

	for _, off := range spiralOffsets {
		if len(fg) >= maxSamples && len(bg) >= maxSamples {
			break
		}
		nx, ny := x+off.dx, y+off.dy
		if nx < 0 || nx >= w || ny < 0 || ny >= h {
			continue
		}
		nidx := ny*w + nx
		switch trimap[nidx] {
		case TrimapForeground:
			if len(fg) < maxSamples {
				fg = append(fg, sampleAt(rgba, nidx, off))
			}
		case TrimapBackground:
			if len(bg) < maxSamples {
				bg = append(bg, sampleAt(rgba, nidx, off))
			}
		}
	}

	if len(fg) == 0 || len(bg) == 0 {
		return
	}

	off := idx * 4
	cr := float32(rgba[off])
	cg := float32(rgba[off+1])
	cb := float32(rgba[off+2])

	bestCost := float32(-1)
	var bestAlpha float32

	for _, f := range fg {
		for _, b := range bg {
			dR := f.r - b.r
			dG := f.g - b.g
			dB := f.b - b.b
			fbDistSq := dR*dR + dG*dG + dB*dB
			if fbDistSq < 4 {
				continue
			}

			a := ((cr-b.r)*dR + (cg-b.g)*dG + (cb-b.b)*dB) / fbDistSq
			a = prim0to1(a)

			rR := cr - (a*f.r + (1-a)*b.r)
			rG := cg - (a*f.g + (1-a)*b.g)
			rB := cb - (a*f.b + (1-a)*b.b)
			reconErr := rR*rR + rG*rG + rB*rB

			cost := reconErr + 0.01*float32(f.distSq+b.distSq)
			if bestCost < 0 || cost < bestCost {
				bestCost = cost
				bestAlpha = a
			}
		}
	}

	if bestCost < 0 {
		return
	}

	confidence := 1 / (1 + 0.001*bestCost)
	if confidence > 1 {
		confidence = 1
	}
	blend := 0.3 + 0.6*confidence

	alpha[idx] = alpha[idx]*(1-blend) + bestAlpha*blend
}

func sampleAt(rgba []byte, idx int, off spiralOffset) colorSample {
	o := idx * 4
	return colorSample{
		r:      float32(rgba[o]),
		g:      float32(rgba[o+1]),
		b:      float32(rgba[o+2]),
		distSq: off.dx*off.dx + off.dy*off.dy,
	}
}

func prim0to1(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
