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
	"testing"

	"github.com/valyala/fastrand"
)

func TestBilateralClampedPreservesAlpha(t *testing.T) {
	// Pins the compression bilateral's open-question alpha handling:
	// the H-pass scratch buffer is seeded via copy(tmp, src), so the
	// V-pass always reads the source alpha, never a zero-initialized one.
	w, h := 6, 6
	img := make([]byte, w*h*4)
	rng := fastrand.RNG{}
	for i := 0; i < w*h; i++ {
		off := i * 4
		img[off] = byte(rng.Uint32n(256))
		img[off+1] = byte(rng.Uint32n(256))
		img[off+2] = byte(rng.Uint32n(256))
		img[off+3] = byte(40 + i%200)
	}
	before := make([]byte, len(img))
	copy(before, img)

	BilateralClamped(img, w, h, 2, 0.2)

	for i := 0; i < w*h; i++ {
		off := i * 4
		if img[off+3] != before[off+3] {
			t.Fatalf("pixel %d alpha changed: got %d want %d", i, img[off+3], before[off+3])
		}
	}
}

func TestBilateralClampedFlatIsUnchanged(t *testing.T) {
	w, h := 5, 5
	img := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		off := i * 4
		img[off], img[off+1], img[off+2], img[off+3] = 90, 90, 90, 255
	}
	BilateralClamped(img, w, h, 2, 0.3)
	for i, v := range img {
		if i%4 == 3 {
			continue
		}
		if v != 90 {
			t.Errorf("byte %d=%d; want 90 on flat input", i, v)
		}
	}
}

func TestChromaSmoothSkipsOnSharpEdge(t *testing.T) {
	w, h := 5, 5
	img := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		off := i * 4
		img[off+3] = 255
	}
	// Sharp vertical edge through the middle column: left half black,
	// right half white, well beyond the 30-level near-flat threshold.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(0)
			if x >= w/2 {
				v = 255
			}
			off := (y*w + x) * 4
			img[off], img[off+1], img[off+2] = v, v, v
		}
	}
	before := make([]byte, len(img))
	copy(before, img)

	ChromaSmooth(img, w, h, 1.0)

	mid := (h/2)*w + w/2
	off := mid * 4
	if img[off] != before[off] {
		t.Errorf("pixel at sharp edge should be left unchanged: got %d want %d", img[off], before[off])
	}
}

func TestQuantizeColorsBelowTwoIsNoOp(t *testing.T) {
	w, h := 2, 2
	img := make([]byte, w*h*4)
	for i := range img {
		img[i] = byte(i * 17)
	}
	out := QuantizeColors(img, w, h, 1)
	if &out[0] != &img[0] {
		t.Errorf("max_colors<2 must return the input unchanged")
	}
}

// S4: a 2x1 black/white image quantized to 2 colors has no room for
// dither bleed and must produce exactly the two source colors.
func TestQuantizeColorsBlackWhiteTwo(t *testing.T) {
	img := []byte{0, 0, 0, 255, 255, 255, 255, 255}
	out := QuantizeColors(img, 2, 1, 2)

	seen := map[[3]byte]bool{}
	for i := 0; i < 2; i++ {
		off := i * 4
		seen[[3]byte{out[off], out[off+1], out[off+2]}] = true
		if out[off+3] != 255 {
			t.Errorf("pixel %d alpha=%d; want 255", i, out[off+3])
		}
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 distinct colors, got %d: %v", len(seen), seen)
	}
	if !seen[[3]byte{0, 0, 0}] || !seen[[3]byte{255, 255, 255}] {
		t.Errorf("expected exactly black and white, got %v", seen)
	}
}

// S2: SSIM of an image against itself is 1.0.
func TestSSIMIdentity(t *testing.T) {
	w, h := 16, 16
	img := make([]byte, w*h*4)
	rng := fastrand.RNG{}
	for i := range img {
		img[i] = byte(rng.Uint32n(256))
	}
	for i := 0; i < w*h; i++ {
		img[i*4+3] = 255
	}
	got := CalculateSSIM(img, img, w, h)
	if got < 0.999999 || got > 1.000001 {
		t.Errorf("SSIM(x,x)=%f; want 1.0", got)
	}
}

// S3: all-black vs all-white over 16x16 should be a very low score.
func TestSSIMDisjointExtremes(t *testing.T) {
	w, h := 16, 16
	black := make([]byte, w*h*4)
	white := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		off := i * 4
		black[off+3] = 255
		white[off], white[off+1], white[off+2], white[off+3] = 255, 255, 255, 255
	}
	got := CalculateSSIM(black, white, w, h)
	if got > 0.01 {
		t.Errorf("SSIM(black,white)=%f; want <=0.01", got)
	}
}

func TestSSIMSizeMismatchReturnsZero(t *testing.T) {
	a := make([]byte, 4*4*4)
	b := make([]byte, 3*4*4)
	got := CalculateSSIM(a, b, 4, 4)
	if got != 0 {
		t.Errorf("size mismatch should return 0, got %f", got)
	}
}

func TestSSIMZeroBlocksReturnsOne(t *testing.T) {
	w, h := 4, 4 // smaller than one 8x8 window
	a := make([]byte, w*h*4)
	b := make([]byte, w*h*4)
	got := CalculateSSIM(a, b, w, h)
	if got != 1 {
		t.Errorf("zero whole windows should return 1.0, got %f", got)
	}
}

// S1: 4x2 constant-color image. Following §4.9's cost rule exactly
// (not the spec narrative's inconsistent worked arithmetic — see
// DESIGN.md), row 0 (no prior row, so Up/Average compare against an
// implicit zero row) costs least under Sub or Paeth, tied at the
// lowest index (Sub=1); row 1 (identical to row 0) costs zero under Up.
func TestPNGFilterConstantImage(t *testing.T) {
	w, h := 4, 2
	img := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		off := i * 4
		img[off], img[off+1], img[off+2], img[off+3] = 128, 128, 128, 255
	}
	got := SelectPNGFilters(img, w, h)
	want := []byte{filterSub, filterUp}
	if len(got) != len(want) {
		t.Fatalf("len(got)=%d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d filter=%d; want %d", i, got[i], want[i])
		}
	}
}

func TestPNGFilterSizeMismatchReturnsZeroVector(t *testing.T) {
	got := SelectPNGFilters(make([]byte, 5), 4, 2)
	if len(got) != 2 {
		t.Fatalf("len(got)=%d; want 2", len(got))
	}
	for _, v := range got {
		if v != 0 {
			t.Errorf("expected zeroed vector on size mismatch, got %v", got)
		}
	}
}

func TestPNGFilterValuesInRange(t *testing.T) {
	w, h := 5, 3
	rng := fastrand.RNG{}
	img := make([]byte, w*h*4)
	for i := range img {
		img[i] = byte(rng.Uint32n(256))
	}
	got := SelectPNGFilters(img, w, h)
	for _, v := range got {
		if v > 4 {
			t.Errorf("filter byte %d out of {0..4}", v)
		}
	}
}

func TestOptimizeForCompressionSizeGuard(t *testing.T) {
	img := make([]byte, 4*4*4-1)
	out := OptimizeForCompression(img, 4, 4, 0.5)
	if &out[0] != &img[0] {
		t.Errorf("size mismatch should return the input unchanged")
	}
}

func TestReportPaletteLabRoundTrip(t *testing.T) {
	palette := []PaletteEntry{
		{R: 0, G: 0, B: 0},
		{R: 255, G: 255, B: 255},
		{R: 255, G: 0, B: 0},
	}
	report := ReportPalette(palette)
	if len(report) != len(palette) {
		t.Fatalf("len(report)=%d; want %d", len(report), len(palette))
	}
	if report[0].L > 1 {
		t.Errorf("black should have near-zero L, got %f", report[0].L)
	}
	if report[1].L < 0.95 {
		t.Errorf("white should have near-1.0 L, got %f", report[1].L)
	}
	if report[2].Chroma <= report[0].Chroma {
		t.Errorf("saturated red should have more chroma than black: red=%f black=%f", report[2].Chroma, report[0].Chroma)
	}
	if report[0].Hex != "#000000" {
		t.Errorf("black hex=%s; want #000000", report[0].Hex)
	}
}

func TestBuildPaletteMatchesQuantizeColorsPaletteSize(t *testing.T) {
	img := []byte{0, 0, 0, 255, 255, 255, 255, 255}
	palette := BuildPalette(img, 2, 1, 2)
	if len(palette) != 2 {
		t.Fatalf("len(palette)=%d; want 2", len(palette))
	}
}
