package stats

import (
	"math"

	"twocarrier/internal/model"
)

// EpisodeStats aggregates step counts and crash outcomes over episodes.
type EpisodeStats struct {
	Episodes  int     `json:"episodes"`
	Crashes   int     `json:"crashes"`
	CrashRate float64 `json:"crash_rate"`
	MeanSteps float64 `json:"mean_steps"`
	StdSteps  float64 `json:"std_steps"`
	MinSteps  int     `json:"min_steps"`
	MaxSteps  int     `json:"max_steps"`
}

func SummarizeEpisodes(items []model.EpisodeSummary) EpisodeStats {
	if len(items) == 0 {
		return EpisodeStats{}
	}
	steps := make([]float64, len(items))
	crashes := 0
	for i, item := range items {
		steps[i] = float64(item.Steps)
		if item.Done {
			crashes++
		}
	}
	mean, std, max, min := seriesStats(steps)
	return EpisodeStats{
		Episodes:  len(items),
		Crashes:   crashes,
		CrashRate: float64(crashes) / float64(len(items)),
		MeanSteps: mean,
		StdSteps:  std,
		MinSteps:  int(min),
		MaxSteps:  int(max),
	}
}

func seriesStats(values []float64) (mean, std, max, min float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	min = values[0]
	max = values[0]
	total := 0.0
	for _, value := range values {
		total += value
		if value > max {
			max = value
		}
		if value < min {
			min = value
		}
	}
	mean = total / float64(len(values))
	sumSq := 0.0
	for _, value := range values {
		diff := mean - value
		sumSq += diff * diff
	}
	std = math.Sqrt(sumSq / float64(len(values)))
	return mean, std, max, min
}
