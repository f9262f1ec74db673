package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Transaction statuses.
const (
	TxPending   = "pending"
	TxConfirmed = "confirmed"
	TxExpired   = "expired"
)

// PaymentPIX is the only payment method offered.
const PaymentPIX = "pix"

// Transaction is a credit purchase awaiting or past payment confirmation.
type Transaction struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	UserEmail     string     `json:"user_email"`
	PackageType   string     `json:"package_type"`
	PackageName   string     `json:"package_name"`
	Amount        float64    `json:"amount"`
	Credits       int        `json:"credits"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method"`
	CreatedAt     time.Time  `json:"created_at"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
}

// CreateTransaction stores tx as pending.
func (s *Store) CreateTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	tx.ID = uuid.NewString()
	tx.Status = TxPending
	if tx.PaymentMethod == "" {
		tx.PaymentMethod = PaymentPIX
	}
	tx.CreatedAt = s.now()
	tx.ConfirmedAt = nil
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, user_email, package_type, package_name, amount, credits, status, payment_method, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		tx.ID, tx.UserID, tx.UserEmail, tx.PackageType, tx.PackageName, tx.Amount, tx.Credits, tx.Status, tx.PaymentMethod, tx.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

const transactionColumns = `id, user_id, user_email, package_type, package_name, amount, credits, status, payment_method, created_at, confirmed_at`

func scanTransaction(row interface{ Scan(...any) error }) (Transaction, error) {
	var (
		t           Transaction
		confirmedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &t.UserEmail, &t.PackageType, &t.PackageName, &t.Amount, &t.Credits, &t.Status, &t.PaymentMethod, &t.CreatedAt, &confirmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, err
	}
	if confirmedAt.Valid {
		ts := confirmedAt.Time
		t.ConfirmedAt = &ts
	}
	return t, nil
}

// ListTransactions returns transactions newest first.
func (s *Store) ListTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ConfirmTransaction marks a pending transaction confirmed and credits the
// purchaser. Confirming anything but a pending transaction is ErrNotFound.
func (s *Store) ConfirmTransaction(ctx context.Context, id string) (Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Transaction{}, ErrNotFound
	}
	var t Transaction
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		t, err = scanTransaction(tx.QueryRowContext(ctx,
			`UPDATE transactions SET status=$2, confirmed_at=$3 WHERE id=$1 AND status=$4 RETURNING `+transactionColumns,
			id, TxConfirmed, s.now(), TxPending))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE users SET credits = credits + $2 WHERE id=$1`, t.UserID, t.Credits)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// ExpirePendingTransactions marks pending transactions created before cutoff
// as expired and returns how many changed.
func (s *Store) ExpirePendingTransactions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `UPDATE transactions SET status=$1 WHERE status=$2 AND created_at < $3`, TxExpired, TxPending, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
