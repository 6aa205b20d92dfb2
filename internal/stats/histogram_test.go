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

package stats

import (
	"math"
	"testing"
)

func TestHistogramBinsSum(t *testing.T) {
	data := make([]float32, 0, 1000)
	for i := 0; i < 1000; i++ {
		data = append(data, float32(i%256))
	}
	bins := make([]int32, 256)
	Histogram(data, 0, 255, bins)

	var total int32
	for _, b := range bins {
		total += b
	}
	if total != int32(len(data)) {
		t.Errorf("bin total=%d; want %d", total, len(data))
	}
}

func TestGetPeakLocatesSpike(t *testing.T) {
	bins := make([]int32, 16)
	bins[10] = 1000
	x, y := GetPeak(bins, 0, 150)
	if y != 500 { // averaged with neighbor bin 11, which is 0
		t.Errorf("peak value=%f; want 500", y)
	}
	if x < 90 || x > 105 {
		t.Errorf("peak location=%f; want near bin 10's center", x)
	}
}

func TestGetModeStdDevFromHistogramFitsGaussian(t *testing.T) {
	const numBins = 256
	min, max := float32(0), float32(255)
	bins := make([]int32, numBins)
	mu, sigma := float32(128), float32(10)
	for i := range bins {
		x := min + (float32(i)+0.5)*(max-min)/float32(numBins-1)
		xmusig := (x - mu) / sigma
		bins[i] = int32(1000 * math.Exp(float64(-0.5*xmusig*xmusig)))
	}

	mode, stdDev, err := GetModeStdDevFromHistogram(bins, min, max)
	if err != nil {
		t.Fatalf("GetModeStdDevFromHistogram: %v", err)
	}
	if math.Abs(float64(mode-mu)) > 5 {
		t.Errorf("mode=%f; want near %f", mode, mu)
	}
	if math.Abs(float64(stdDev-sigma)) > 5 {
		t.Errorf("stdDev=%f; want near %f", stdDev, sigma)
	}
}
