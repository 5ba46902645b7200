package services

import (
	"context"
	"math"

	"creative-arena-backend/internal/store"
)

type WinStats struct {
	Participated  int64 `json:"participated"`
	Won           int64 `json:"won"`
	WinPercentage int64 `json:"winPercentage"`
}

type StatsService struct {
	store store.Submissions
}

func NewStatsService(s store.Submissions) *StatsService {
	return &StatsService{store: s}
}

func (s *StatsService) WinStats(ctx context.Context, email string) (*WinStats, error) {
	participated, won, err := s.store.CountSubmissions(ctx, email)
	if err != nil {
		return nil, err
	}
	return &WinStats{
		Participated:  participated,
		Won:           won,
		WinPercentage: winPercentage(participated, won),
	}, nil
}

// winPercentage is won/participated as a whole percent, 0 with no entries.
func winPercentage(participated, won int64) int64 {
	if participated == 0 {
		return 0
	}
	return int64(math.Round(float64(won) / float64(participated) * 100))
}
