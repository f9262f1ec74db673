package store

import (
	"context"
	"time"
)

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers    int     `json:"total_users"`
	TotalSearches int     `json:"total_searches"`
	TotalRevenue  float64 `json:"total_revenue"`
	TodaySales    int     `json:"today_sales"`
}

// Stats counts accounts and searches, sums confirmed revenue and counts the
// transactions confirmed since the start of the current UTC day.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var st Stats
	err := s.DB.QueryRowContext(ctx, `SELECT
  (SELECT COUNT(*) FROM users),
  (SELECT COUNT(*) FROM searches),
  (SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE status=$1),
  (SELECT COUNT(*) FROM transactions WHERE status=$1 AND confirmed_at >= $2)`,
		TxConfirmed, dayStart).Scan(&st.TotalUsers, &st.TotalSearches, &st.TotalRevenue, &st.TodaySales)
	return st, err
}
