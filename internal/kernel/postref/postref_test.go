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

import "testing"

// S5 (traced against the BFS algorithm exactly as written in §4.10 and
// confirmed against original_source/wasm/post-refinement/src/trimap.rs
// — see DESIGN.md for why this differs from the spec narrative's own
// worked numbers): a 4x4 image split 0/1 at the column boundary,
// radius=1, propagates the two edge columns one further hop, so all
// four columns end up within the BFS radius and are labeled unknown.
func TestTrimapBFS(t *testing.T) {
	w, h := 4, 4
	alpha := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= w/2 {
				alpha[y*w+x] = 1
			}
		}
	}
	trimap := BuildTrimap(alpha, w, h, 1)
	for i, v := range trimap {
		if v != TrimapUnknown {
			t.Errorf("pixel %d trimap=%d; want %d (all columns within 1 BFS hop of the edge)", i, v, TrimapUnknown)
		}
	}
}

func TestTrimapBFSFarFromEdgeIsDefinite(t *testing.T) {
	w, h := 12, 1
	alpha := make([]float32, w*h)
	for x := w / 2; x < w; x++ {
		alpha[x] = 1
	}
	trimap := BuildTrimap(alpha, w, h, 1)
	if trimap[0] != TrimapBackground {
		t.Errorf("pixel far from the edge should be definite background, got %d", trimap[0])
	}
	if trimap[w-1] != TrimapForeground {
		t.Errorf("pixel far from the edge should be definite foreground, got %d", trimap[w-1])
	}
}

func TestTrimapValuesInSet(t *testing.T) {
	w, h := 6, 6
	alpha := make([]float32, w*h)
	for i := range alpha {
		alpha[i] = float32(i%5) / 4.0
	}
	trimap := BuildTrimap(alpha, w, h, 2)
	for i, v := range trimap {
		if v != TrimapBackground && v != TrimapUnknown && v != TrimapForeground {
			t.Errorf("pixel %d trimap=%d not in {0,128,255}", i, v)
		}
	}
}

func TestFastGuidedFilterFlatIsUnchanged(t *testing.T) {
	w, h := 16, 16
	guide := make([]float32, w*h)
	p := make([]float32, w*h)
	for i := range guide {
		guide[i] = 0.5
		p[i] = 0.7
	}
	out := FastGuidedFilter(guide, p, w, h, 4, 4, 1e-4)
	for i, v := range out {
		if v < 0.69 || v > 0.71 {
			t.Errorf("pixel %d=%f; want ~0.7 on flat input", i, v)
		}
	}
}

// S6: Poisson SOR over a flat alpha/guide pair has zero Laplacian and
// no free pixel whose update would move it, so output must equal input
// byte-for-byte (here, value-for-value).
func TestPoissonSORFlatNoOp(t *testing.T) {
	w, h := 6, 6
	alpha := make([]float32, w*h)
	guide := make([]float32, w*h)
	for i := range alpha {
		alpha[i] = 0.5
		guide[i] = 0.5
	}
	before := make([]float32, len(alpha))
	copy(before, alpha)

	PoissonSOR(alpha, guide, w, h, 3)

	for i, v := range alpha {
		if v != before[i] {
			t.Errorf("pixel %d=%f; want unchanged %f", i, v, before[i])
		}
	}
}

func TestPoissonSORLeavesBorderUntouched(t *testing.T) {
	w, h := 6, 6
	alpha := make([]float32, w*h)
	guide := make([]float32, w*h)
	for i := range alpha {
		alpha[i] = 0.3
		guide[i] = 0.9
	}
	alpha[w*h/2] = 0.9 // interior perturbation to drive the Laplacian nonzero
	before := make([]float32, len(alpha))
	copy(before, alpha)

	PoissonSOR(alpha, guide, w, h, 3)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				idx := y*w + x
				if alpha[idx] != before[idx] {
					t.Errorf("border pixel (%d,%d) changed: %f -> %f", x, y, before[idx], alpha[idx])
				}
			}
		}
	}
}

func TestScharrRefineDegenerateGradientNoOp(t *testing.T) {
	w, h := 8, 8
	alpha := make([]float32, w*h)
	guide := make([]float32, w*h) // flat guide -> zero gradient everywhere
	for i := range alpha {
		alpha[i] = 0.5
	}
	before := make([]float32, len(alpha))
	copy(before, alpha)

	ScharrRefine(alpha, guide, w, h, 0.3)

	for i, v := range alpha {
		if v != before[i] {
			t.Errorf("pixel %d changed on a degenerate (all-flat) guide gradient: %f -> %f", i, before[i], v)
		}
	}
}

func TestFeatherAlphaClampsToUnitRange(t *testing.T) {
	w, h := 5, 5
	alpha := make([]float32, w*h)
	for i := range alpha {
		alpha[i] = 1.2 // deliberately out of range before clamping
	}
	out := FeatherAlpha(alpha, w, h, 1)
	for i, v := range out {
		if v < 0 || v > 1 {
			t.Errorf("pixel %d=%f out of [0,1]", i, v)
		}
	}
}

func TestPostProcessSizeGuard(t *testing.T) {
	w, h := 4, 4
	mask := make([]byte, w*h*4-1)
	orig := make([]byte, w*h*4)
	out := PostProcess(mask, orig, w, h, 8, 0.01, 30, 2)
	if &out[0] != &mask[0] {
		t.Errorf("size mismatch should return mask_rgba unchanged")
	}
}

func TestPostProcessPreservesRGB(t *testing.T) {
	w, h := 10, 10
	mask := make([]byte, w*h*4)
	orig := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		off := i * 4
		mask[off], mask[off+1], mask[off+2] = 11, 22, 33
		mask[off+3] = byte(i % 256)
		orig[off], orig[off+1], orig[off+2], orig[off+3] = byte(i * 7), byte(i * 3), byte(i * 5), 255
	}

	out := PostProcess(mask, orig, w, h, 4, 0.01, 30, 1)

	for i := 0; i < w*h; i++ {
		off := i * 4
		if out[off] != 11 || out[off+1] != 22 || out[off+2] != 33 {
			t.Fatalf("pixel %d RGB should be untouched by post_process: got (%d,%d,%d)", i, out[off], out[off+1], out[off+2])
		}
	}
}
