package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/verificapessoa/verificapessoa/internal/metrics"
	"github.com/verificapessoa/verificapessoa/internal/report"
)

// CreditsPerSearch is debited for every stored search.
const CreditsPerSearch = 1

// SearchRecord is one paid search and its report.
type SearchRecord struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	UserEmail   string        `json:"user_email"`
	SearchName  string        `json:"search_name"`
	NationalID  string        `json:"national_id,omitempty"`
	Report      report.Report `json:"results"`
	CreditsUsed int           `json:"credits_used"`
	CreatedAt   time.Time     `json:"created_at"`
}

// RecordSearch debits one credit from accountID and stores the report in the
// same transaction. ErrInsufficientCredits leaves both untouched.
func (s *Store) RecordSearch(ctx context.Context, accountID string, subject report.Subject, r report.Report) (SearchRecord, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return SearchRecord{}, err
	}
	subject = subject.Normalize()
	rec := SearchRecord{
		ID:          uuid.NewString(),
		UserID:      accountID,
		SearchName:  subject.Label(),
		NationalID:  subject.NationalID,
		Report:      r,
		CreditsUsed: CreditsPerSearch,
		CreatedAt:   s.now(),
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`UPDATE users SET credits = credits - $2 WHERE id=$1 AND credits >= $2 RETURNING email`,
			accountID, CreditsPerSearch).Scan(&rec.UserEmail)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInsufficientCredits
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO searches (id, user_id, user_email, search_name, national_id, results, credits_used, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			rec.ID, rec.UserID, rec.UserEmail, rec.SearchName, rec.NationalID, payload, rec.CreditsUsed, rec.CreatedAt)
		return err
	})
	if err != nil {
		return SearchRecord{}, err
	}
	metrics.CreditsDebitedTotal.Add(CreditsPerSearch)
	return rec, nil
}

const searchColumns = `id, user_id, user_email, search_name, national_id, results, credits_used, created_at`

func scanSearch(row interface{ Scan(...any) error }) (SearchRecord, error) {
	var (
		rec     SearchRecord
		payload []byte
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.UserEmail, &rec.SearchName, &rec.NationalID, &payload, &rec.CreditsUsed, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SearchRecord{}, ErrNotFound
	}
	if err != nil {
		return SearchRecord{}, err
	}
	if err := json.Unmarshal(payload, &rec.Report); err != nil {
		return SearchRecord{}, err
	}
	return rec, nil
}

// GetSearch loads a search. A non-empty userID restricts it to its owner.
func (s *Store) GetSearch(ctx context.Context, id, userID string) (SearchRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return SearchRecord{}, ErrNotFound
	}
	if userID == "" {
		return scanSearch(s.DB.QueryRowContext(ctx, `SELECT `+searchColumns+` FROM searches WHERE id=$1`, id))
	}
	return scanSearch(s.DB.QueryRowContext(ctx, `SELECT `+searchColumns+` FROM searches WHERE id=$1 AND user_id=$2`, id, userID))
}

// ListSearches returns the searches of userID newest first; an empty userID
// lists every account.
func (s *Store) ListSearches(ctx context.Context, userID string, limit int) ([]SearchRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if userID == "" {
		rows, err = s.DB.QueryContext(ctx, `SELECT `+searchColumns+` FROM searches ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	} else {
		rows, err = s.DB.QueryContext(ctx, `SELECT `+searchColumns+` FROM searches WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, clampLimit(limit))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SearchRecord
	for rows.Next() {
		rec, err := scanSearch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
