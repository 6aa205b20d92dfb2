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

const sorOmega = 1.5

// PoissonSOR relaxes alpha in place toward a Poisson equation guided
// by guide's Laplacian, via in-place Gauss-Seidel with over-relaxation
// factor 1.5. A pixel is "free" iff 0.02<alpha<0.98; everything else,
// including the 1-pixel border, is held fixed. Sweeps run in row-major
// order so freshly updated left/up neighbors feed right/down updates
// within the same sweep.
func PoissonSOR(alpha []float32, guide []float32, w, h, iterations int) {
	if w < 3 || h < 3 {
		return
	}

	laplacian := make([]float32, w*h)
	free := make([]bool, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			idx := y*w + x
			laplacian[idx] = guide[idx-1] + guide[idx+1] + guide[idx-w] + guide[idx+w] - 4*guide[idx]
			a := alpha[idx]
			free[idx] = a > 0.02 && a < 0.98
		}
	}

	for it := 0; it < iterations; it++ {
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				idx := y*w + x
				if !free[idx] {
					continue
				}

				avg := 0.25 * (alpha[idx-1] + alpha[idx+1] + alpha[idx-w] + alpha[idx+w])
				gs := avg + 0.3*laplacian[idx]
				updated := alpha[idx] + sorOmega*(gs-alpha[idx])
				if updated < 0 {
					updated = 0
				}
				if updated > 1 {
					updated = 1
				}
				alpha[idx] = updated
			}
		}
	}
}
