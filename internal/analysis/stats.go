package analysis

import "math"

type Summary struct {
	Samples int
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
	RMS     float64
}

func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	s := Summary{
		Samples: len(values),
		Min:     values[0],
		Max:     values[0],
	}
	sum, sumSq := 0.0, 0.0
	for _, v := range values {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
		sumSq += v * v
	}

	n := float64(len(values))
	s.Mean = sum / n
	s.RMS = math.Sqrt(sumSq / n)
	variance := sumSq/n - s.Mean*s.Mean
	if variance > 0 {
		s.StdDev = math.Sqrt(variance)
	}
	return s
}
