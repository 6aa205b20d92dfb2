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

// FeatherAlpha runs a separable running-sum box blur of radius over
// alpha and clamps the result to [0,1].
func FeatherAlpha(alpha []float32, w, h, radius int) []float32 {
	blurred := prim.BoxBlurSeparable(alpha, w, h, radius)
	for i, v := range blurred {
		blurred[i] = prim.ClampUnit(v)
	}
	return blurred
}
