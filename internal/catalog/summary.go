package catalog

import (
	"math"

	"toolkithub/internal/models"
)

// Summary is the catalog-wide statistics view.
type Summary struct {
	TotalTools    int            `json:"totalTools"`
	FreeTools     int            `json:"freeTools"`
	RatedTools    int            `json:"ratedTools"`
	TotalRatings  int            `json:"totalRatings"`
	AverageRating float64        `json:"averageRating"`
	ByCategory    map[string]int `json:"byCategory"`
}

// Summarize computes catalog statistics. AverageRating is weighted by each
// tool's rating count.
func Summarize(tools []models.Tool) Summary {
	s := Summary{
		TotalTools: len(tools),
		ByCategory: make(map[string]int),
	}

	var weighted float64
	for _, t := range tools {
		s.ByCategory[t.Category]++
		if t.Plan == models.PlanFree {
			s.FreeTools++
		}
		if t.RatingCount > 0 {
			s.RatedTools++
			s.TotalRatings += t.RatingCount
			weighted += t.AverageRating * float64(t.RatingCount)
		}
	}
	if s.TotalRatings > 0 {
		s.AverageRating = RoundOneDecimal(weighted / float64(s.TotalRatings))
	}
	return s
}

// Average returns the mean of values rounded to one decimal, or 0 for none.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return RoundOneDecimal(sum / float64(len(values)))
}

func RoundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
