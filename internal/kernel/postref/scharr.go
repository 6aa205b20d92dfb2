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

// ScharrRefine sharpens alpha transitions in place against guide, an
// L1-magnitude (no sqrt) Scharr edge map: interior pixels with alpha
// strictly inside (0.05,0.95) and a normalized edge strength above
// edgeThreshold are pushed toward their nearer endpoint. Border pixels
// are left untouched; a degenerate (all near-zero) gradient is a no-op.
func ScharrRefine(alpha []float32, guide []float32, w, h int, edgeThreshold float32) {
	if w < 3 || h < 3 {
		return
	}

	mag := make([]float32, w*h)
	var maxMag float32

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			idx := y*w + x
			tl, tc, tr := guide[idx-w-1], guide[idx-w], guide[idx-w+1]
			ml, _, mr := guide[idx-1], guide[idx], guide[idx+1]
			bl, bc, br := guide[idx+w-1], guide[idx+w], guide[idx+w+1]

			gx := -3*tl + 3*tr - 10*ml + 10*mr - 3*bl + 3*br
			gy := -3*tl - 10*tc - 3*tr + 3*bl + 10*bc + 3*br

			m := absF32(gx) + absF32(gy)
			mag[idx] = m
			if m > maxMag {
				maxMag = m
			}
		}
	}

	if maxMag < 1e-6 {
		return
	}
	invMax := 1 / maxMag

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			idx := y*w + x
			a := alpha[idx]
			if a <= 0.05 || a >= 0.95 {
				continue
			}

			e := mag[idx] * invMax
			if e < edgeThreshold {
				continue
			}

			strength := (e - edgeThreshold) / (1 - edgeThreshold)
			if strength > 1 {
				strength = 1
			}

			if a > 0.5 {
				alpha[idx] = a + (1-a)*strength*0.5
			} else {
				alpha[idx] = a * (1 - strength*0.5)
			}
		}
	}
}
