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

package rest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"time"

	"github.com/mlnoga/imgcore/internal/kernel/compress"
	"github.com/mlnoga/imgcore/internal/kernel/postref"
	"github.com/mlnoga/imgcore/internal/kernel/preref"
)

// JobRequest names one pipeline and carries its parameters plus one or
// two base64-encoded PNG payloads.
type JobRequest struct {
	Pipeline string `json:"pipeline"`
	ImageA   string `json:"image_a"`
	ImageB   string `json:"image_b,omitempty"`

	CLAHEClip       float32 `json:"clahe_clip,omitempty"`
	CLAHEGrid       int     `json:"clahe_grid,omitempty"`
	DenoiseRadius   int     `json:"denoise_radius,omitempty"`
	SharpenStrength float32 `json:"sharpen_strength,omitempty"`

	CompressStrength float32 `json:"compress_strength,omitempty"`
	MaxColors        int     `json:"max_colors,omitempty"`

	GuideRadius   int     `json:"guide_radius,omitempty"`
	GuideEps      float32 `json:"guide_eps,omitempty"`
	EdgeThreshold uint32  `json:"edge_threshold,omitempty"`
	FeatherRadius int     `json:"feather_radius,omitempty"`
}

// RunJob decodes req's payload(s), runs the named pipeline, and writes
// a plaintext progress log to logWriter as each stage completes.
func RunJob(req *JobRequest, logWriter io.Writer) error {
	fmt.Fprintf(logWriter, "pipeline: %s\n", req.Pipeline)

	rgbaA, w, h, err := decodePNGBase64(req.ImageA)
	if err != nil {
		return fmt.Errorf("decode image_a: %w", err)
	}
	fmt.Fprintf(logWriter, "decoded image_a: %dx%d\n", w, h)

	start := time.Now()
	switch req.Pipeline {
	case "pre":
		out := preref.PreProcess(rgbaA, w, h, req.CLAHEClip, req.CLAHEGrid, req.DenoiseRadius, req.SharpenStrength)
		fmt.Fprintf(logWriter, "pre_process: %s\n", time.Since(start))
		return writeEncodedPNG(logWriter, out, w, h)

	case "compress":
		out := compress.OptimizeForCompression(rgbaA, w, h, req.CompressStrength)
		fmt.Fprintf(logWriter, "optimize_for_compression: %s\n", time.Since(start))
		return writeEncodedPNG(logWriter, out, w, h)

	case "quantize":
		out := compress.QuantizeColors(rgbaA, w, h, req.MaxColors)
		fmt.Fprintf(logWriter, "quantize_colors: %s\n", time.Since(start))
		return writeEncodedPNG(logWriter, out, w, h)

	case "ssim":
		rgbaB, w2, h2, err := decodePNGBase64(req.ImageB)
		if err != nil {
			return fmt.Errorf("decode image_b: %w", err)
		}
		if w2 != w || h2 != h {
			return fmt.Errorf("ssim: image_a is %dx%d but image_b is %dx%d", w, h, w2, h2)
		}
		score := compress.CalculateSSIM(rgbaA, rgbaB, w, h)
		fmt.Fprintf(logWriter, "calculate_ssim: %s\n", time.Since(start))
		fmt.Fprintf(logWriter, "ssim: %f\n", score)
		return nil

	case "pngfilters":
		filters := compress.SelectPNGFilters(rgbaA, w, h)
		fmt.Fprintf(logWriter, "select_png_filters: %s\n", time.Since(start))
		fmt.Fprintf(logWriter, "filters: %v\n", filters)
		return nil

	case "post":
		origRGBA, w2, h2, err := decodePNGBase64(req.ImageB)
		if err != nil {
			return fmt.Errorf("decode image_b (orig): %w", err)
		}
		if w2 != w || h2 != h {
			return fmt.Errorf("post: mask is %dx%d but orig is %dx%d", w, h, w2, h2)
		}
		out := postref.PostProcess(rgbaA, origRGBA, w, h, req.GuideRadius, req.GuideEps, req.EdgeThreshold, req.FeatherRadius)
		fmt.Fprintf(logWriter, "post_process: %s\n", time.Since(start))
		return writeEncodedPNG(logWriter, out, w, h)

	default:
		return fmt.Errorf("unknown pipeline %q", req.Pipeline)
	}
}

func decodePNGBase64(data string) (rgba []byte, w, h int, err error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, 0, 0, err
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, 0, err
	}
	bounds := img.Bounds()
	w, h = bounds.Dx(), bounds.Dy()
	nrgba := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			nrgba.Set(x, y, img.At(x, y))
		}
	}
	return nrgba.Pix, w, h, nil
}

func writeEncodedPNG(logWriter io.Writer, rgba []byte, w, h int) error {
	img := &image.NRGBA{Pix: rgba, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "result_png_base64: %s\n", base64.StdEncoding.EncodeToString(buf.Bytes()))
	return nil
}
