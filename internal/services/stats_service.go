package services

import (
	"time"

	"github.com/Krishtopa13/planet-learn-languages/internal/storage"
)

// Stats содержит агрегированную статистику по всем пользователям
type Stats struct {
	TotalUsers    int
	TotalPremium  int
	NewToday      int
	PaymentsToday int
}

// StatsService считает агрегированную статистику по хранилищу пользователей
type StatsService struct {
	users *storage.UserStore
	now   func() time.Time
}

// NewStatsService создает новый сервис статистики
func NewStatsService(users *storage.UserStore) *StatsService {
	return &StatsService{users: users, now: time.Now}
}

// Calculate считает статистику на текущий день
func (s *StatsService) Calculate() (*Stats, error) {
	users, err := s.users.All()
	if err != nil {
		return nil, err
	}

	today := s.now().Format("2006-01-02")
	stats := &Stats{TotalUsers: len(users)}
	for _, u := range users {
		if u.IsPremium {
			stats.TotalPremium++
		}
		if u.RegistrationTime == today {
			stats.NewToday++
		}
		if u.PremiumTime != nil && *u.PremiumTime == today {
			stats.PaymentsToday++
		}
	}
	return stats, nil
}
