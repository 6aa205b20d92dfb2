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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"

	"github.com/mlnoga/imgcore/internal/kernel/compress"
	"github.com/mlnoga/imgcore/internal/kernel/postref"
	"github.com/mlnoga/imgcore/internal/kernel/preref"
	"github.com/mlnoga/imgcore/internal/kernel/prim"
	"github.com/mlnoga/imgcore/internal/imageio"
	"github.com/mlnoga/imgcore/internal/rest"
	"github.com/mlnoga/imgcore/internal/stats"
)

const version = "0.1.0"

var totalMiBs = memory.TotalMemory() / 1024 / 1024

var (
	in   = flag.String("in", "", "input image `file`")
	out  = flag.String("out", "out.png", "save output to `file`")
	a    = flag.String("a", "", "first image `file` for ssim")
	b    = flag.String("b", "", "second image `file` for ssim")
	mask = flag.String("mask", "", "alpha mask image `file` for post")
	orig = flag.String("orig", "", "original color image `file` for post")

	claheClip     = flag.Float64("clahe-clip", 3.0, "CLAHE clip limit, <=1.0 disables")
	claheGrid     = flag.Int64("clahe-grid", 8, "CLAHE tile grid size per axis, <2 disables")
	denoiseRadius = flag.Int64("denoise-radius", 2, "pre-refinement bilateral denoise radius in pixels, 0 disables")
	sharpen       = flag.Float64("sharpen", 0.5, "unsharp mask strength, 0 disables")

	strength = flag.Float64("strength", 0.4, "compression optimization strength in [0,1]")
	colors   = flag.Int64("colors", 64, "max palette colors for quantize, at most 256; below 2 leaves the image unquantized")

	guideRadius   = flag.Int64("guide-radius", 8, "fast guided filter radius in pixels")
	guideEps      = flag.Float64("guide-eps", 0.01, "fast guided filter regularization epsilon")
	edgeThreshold = flag.Int64("edge-threshold", 30, "Scharr edge refinement threshold in [0,255]")
	featherRadius = flag.Int64("feather-radius", 2, "final alpha feathering radius in pixels, 0 disables")

	port = flag.Int64("port", 8080, "port for serving the HTTP job API")
)

func main() {
	var logWriter io.Writer = os.Stdout
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `imgcore Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (pre|compress|quantize|ssim|pngfilters|post|stats|serve|legal|version)

Commands:
  pre        Run the pre-refinement pipeline (denoise, CLAHE, unsharp mask)
  compress   Run the compression-optimization pipeline
  quantize   Quantize an image's palette and report it
  ssim       Compute the structural similarity of two images
  pngfilters Select the lowest-cost PNG row filter per row
  post       Run the post-refinement matting pipeline
  stats      Show a BT.709 luminance histogram peak and fitted noise sigma
  serve      Serve the job API over HTTP
  legal      Show license and attribution information
  version    Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	fmt.Fprintf(logWriter, "imgcore %s, %d MiB RAM, %s\n", version, totalMiBs, cpuBanner())

	var err error
	switch args[0] {
	case "pre":
		err = runPre(logWriter)
	case "compress":
		err = runCompress(logWriter)
	case "quantize":
		err = runQuantize(logWriter)
	case "ssim":
		err = runSSIM(logWriter)
	case "pngfilters":
		err = runPNGFilters(logWriter)
	case "post":
		err = runPost(logWriter)
	case "stats":
		err = runStats(logWriter)
	case "serve":
		err = rest.Serve(int(*port))
	case "legal":
		fmt.Fprint(logWriter, legal)
	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)
	case "help", "?":
		flag.Usage()
	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		os.Exit(-1)
	}

	elapsed := time.Since(start).Round(time.Millisecond * 10)
	fmt.Fprintf(logWriter, "\nDone after %s\n", elapsed)
}

// cpuBanner reports CPU brand and feature flags for diagnostics only;
// no code path dispatches on it.
func cpuBanner() string {
	return fmt.Sprintf("%s (AVX2=%v)", cpuid.CPU.BrandName, cpuid.CPU.AVX2())
}

func runPre(logWriter io.Writer) error {
	rgba, w, h, err := imageio.Load(*in)
	if err != nil {
		return err
	}
	out2 := preref.PreProcess(rgba, w, h, float32(*claheClip), int(*claheGrid), int(*denoiseRadius), float32(*sharpen))
	if err := imageio.Save(*out, out2, w, h); err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "wrote %s\n", *out)
	return nil
}

func runCompress(logWriter io.Writer) error {
	rgba, w, h, err := imageio.Load(*in)
	if err != nil {
		return err
	}
	out2 := compress.OptimizeForCompression(rgba, w, h, float32(*strength))
	if err := imageio.Save(*out, out2, w, h); err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "wrote %s\n", *out)
	return nil
}

func runQuantize(logWriter io.Writer) error {
	rgba, w, h, err := imageio.Load(*in)
	if err != nil {
		return err
	}
	palette := compress.BuildPalette(rgba, w, h, int(*colors))
	for _, entry := range compress.ReportPalette(palette) {
		fmt.Fprintf(logWriter, "%s  L=%.1f  C=%.1f\n", entry.Hex, entry.L*100, entry.Chroma)
	}
	out2 := compress.QuantizeColors(rgba, w, h, int(*colors))
	if err := imageio.Save(*out, out2, w, h); err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "wrote %s\n", *out)
	return nil
}

func runSSIM(logWriter io.Writer) error {
	rgbaA, wa, ha, err := imageio.Load(*a)
	if err != nil {
		return err
	}
	rgbaB, wb, hb, err := imageio.Load(*b)
	if err != nil {
		return err
	}
	if wa != wb || ha != hb {
		return fmt.Errorf("ssim: %s is %dx%d but %s is %dx%d", *a, wa, ha, *b, wb, hb)
	}
	score := compress.CalculateSSIM(rgbaA, rgbaB, wa, ha)
	fmt.Fprintf(logWriter, "ssim: %f\n", score)
	return nil
}

func runPNGFilters(logWriter io.Writer) error {
	rgba, w, h, err := imageio.Load(*in)
	if err != nil {
		return err
	}
	filters := compress.SelectPNGFilters(rgba, w, h)
	fmt.Fprintf(logWriter, "filters: %v\n", filters)
	return nil
}

func runPost(logWriter io.Writer) error {
	maskRGBA, w, h, err := imageio.Load(*mask)
	if err != nil {
		return err
	}
	origRGBA, wo, ho, err := imageio.Load(*orig)
	if err != nil {
		return err
	}
	if w != wo || h != ho {
		return fmt.Errorf("post: mask %s is %dx%d but orig %s is %dx%d", *mask, w, h, *orig, wo, ho)
	}
	out2 := postref.PostProcess(maskRGBA, origRGBA, w, h, int(*guideRadius), float32(*guideEps), uint32(*edgeThreshold), int(*featherRadius))
	if err := imageio.Save(*out, out2, w, h); err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "wrote %s\n", *out)
	return nil
}

func runStats(logWriter io.Writer) error {
	rgba, w, h, err := imageio.Load(*in)
	if err != nil {
		return err
	}
	const numBins = 256
	lum := make([]float32, w*h)
	for i := 0; i < w*h; i++ {
		off := i * 4
		lum[i] = prim.Lum709(rgba[off], rgba[off+1], rgba[off+2])
	}
	bins := make([]int32, numBins)
	stats.Histogram(lum, 0, 255, bins)
	peak, _ := stats.GetPeak(bins, 0, 255)
	mode, sigma, err := stats.GetModeStdDevFromHistogram(bins, 0, 255)
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "histogram peak: %.2f, fitted mode: %.2f, noise sigma: %.2f\n", peak, mode, sigma)
	return nil
}
