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

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// PaletteEntryReport adds CIE-Lab lightness/chroma to a palette entry,
// so a caller can see at a glance how perceptually spread a quantized
// palette is. It is reporting-only: nothing here feeds back into
// QuantizeColors' nearest-color math.
type PaletteEntryReport struct {
	PaletteEntry
	Hex     string
	L, A, B float64 // CIE-Lab
	Chroma  float64 // sqrt(A^2+B^2)
}

// ReportPalette converts each palette entry to CIE-Lab via go-colorful
// and reports its lightness and chroma alongside its hex code.
func ReportPalette(palette []PaletteEntry) []PaletteEntryReport {
	out := make([]PaletteEntryReport, len(palette))
	for i, p := range palette {
		col := colorful.Color{
			R: float64(p.R) / 255,
			G: float64(p.G) / 255,
			B: float64(p.B) / 255,
		}
		l, a, b := col.Lab()
		out[i] = PaletteEntryReport{
			PaletteEntry: p,
			Hex:          col.Hex(),
			L:            l,
			A:            a,
			B:            b,
			Chroma:       chroma(a, b),
		}
	}
	return out
}

func chroma(a, b float64) float64 {
	return math.Sqrt(a*a + b*b)
}
