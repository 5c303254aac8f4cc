package spectral

import "math"

// HighFrequencyRatio returns the share of spectral energy (magnitude squared)
// lying farther than radius*Size from the DC centre. A spectrum with no
// energy yields 0.
func HighFrequencyRatio(s *Spectrum, radius float64) float64 {
	if s == nil || s.Size == 0 {
		return 0
	}

	center := float64(s.Size) / 2
	threshold := float64(s.Size) * radius

	var total, high float64
	for y := 0; y < s.Size; y++ {
		dy := float64(y) - center
		for x := 0; x < s.Size; x++ {
			dx := float64(x) - center
			m := s.Magnitude[y*s.Size+x]
			energy := m * m

			total += energy
			if math.Sqrt(dx*dx+dy*dy) > threshold {
				high += energy
			}
		}
	}

	if total <= 0 {
		return 0
	}
	return high / total
}

// RadialProfile averages magnitudes over `bands` concentric rings of equal
// width spanning the inscribed radius Size/2. Pixels beyond it fall into the
// last ring. Rings with no pixels average to 0.
func RadialProfile(s *Spectrum, bands int) []float64 {
	avg := make([]float64, bands)
	if s == nil || s.Size == 0 || bands <= 0 {
		return avg
	}

	count := make([]int, bands)
	center := float64(s.Size) / 2
	for y := 0; y < s.Size; y++ {
		dy := float64(y) - center
		for x := 0; x < s.Size; x++ {
			dx := float64(x) - center
			dist := math.Sqrt(dx*dx + dy*dy)
			band := int(math.Floor(dist / center * float64(bands)))
			if band > bands-1 {
				band = bands - 1
			}
			avg[band] += s.Magnitude[y*s.Size+x]
			count[band]++
		}
	}

	for i := range avg {
		if count[i] > 0 {
			avg[i] /= float64(count[i])
		}
	}
	return avg
}

// SpectralAnomaly measures how far the radial profile strays from a steady
// per-band decay. Bands 1..bands-2 are compared with decay times their inner
// neighbour; the result is the mean relative deviation over those bands.
func SpectralAnomaly(s *Spectrum, bands int, decay float64) float64 {
	profile := RadialProfile(s, bands)
	evaluated := bands - 2
	if evaluated <= 0 {
		return 0
	}

	var sum float64
	for i := 1; i < bands-1; i++ {
		expected := profile[i-1] * decay
		sum += math.Abs(profile[i]-expected) / (expected + 1)
	}
	return sum / float64(evaluated)
}
