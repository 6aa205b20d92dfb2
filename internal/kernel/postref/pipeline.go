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

// trimapRadius and poissonIterations are fixed pipeline constants, not
// exposed parameters — the BFS band width and SOR sweep count are part
// of the pipeline's own tuning, not caller-adjustable inputs.
const (
	trimapRadius     = 5
	poissonIterations = 3
)

// PostProcess refines maskRGBA's alpha channel against origRGBA's
// color as a guide: trimap -> fast guided filter -> shared matting ->
// Scharr edge refine -> Poisson SOR -> optional feather. Returns
// maskRGBA unchanged if either buffer's length doesn't match w*h*4.
func PostProcess(maskRGBA, origRGBA []byte, w, h int, guideRadius int, guideEps float32, edgeThreshold uint32, featherRadius int) []byte {
	npx := w * h
	if len(maskRGBA) != npx*4 || len(origRGBA) != npx*4 {
		return maskRGBA
	}

	alpha := make([]float32, npx)
	guide := make([]float32, npx)
	const inv255 = 1.0 / 255.0
	for i := 0; i < npx; i++ {
		off := i * 4
		alpha[i] = float32(maskRGBA[off+3]) * inv255
		guide[i] = prim.Lum709(origRGBA[off], origRGBA[off+1], origRGBA[off+2]) * inv255
	}

	// Stage 1: trimap via BFS distance transform.
	trimap := BuildTrimap(alpha, w, h, trimapRadius)

	// Stage 2: fast guided filter against the luminance guide.
	subsample := clampInt(minInt(w, h)/8, 1, 4)
	refined := FastGuidedFilter(guide, alpha, w, h, guideRadius, subsample, guideEps)

	// Stage 3: shared matting over the unknown trimap zone.
	SharedMatting(refined, origRGBA, trimap, w, h)

	// Stage 4: Scharr edge refinement.
	edgeThresh := float32(edgeThreshold) / 255.0
	ScharrRefine(refined, guide, w, h, edgeThresh)

	// Stage 5: Poisson SOR relaxation.
	PoissonSOR(refined, guide, w, h, poissonIterations)

	// Stage 6: optional alpha feathering.
	if featherRadius > 0 {
		refined = FeatherAlpha(refined, w, h, featherRadius)
	}

	out := make([]byte, len(maskRGBA))
	copy(out, maskRGBA)
	for i := 0; i < npx; i++ {
		out[i*4+3] = prim.ClampByte(refined[i] * 255.0)
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
