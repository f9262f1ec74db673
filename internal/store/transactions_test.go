package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

var txCols = []string{"id", "user_id", "user_email", "package_type", "package_name", "amount", "credits", "status", "payment_method", "created_at", "confirmed_at"}

func TestCreateTransaction(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions (id, user_id, user_email, package_type, package_name, amount, credits, status, payment_method, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`)).
		WithArgs(sqlmock.AnyArg(), "u-1", "a@b.com", "pack10", "Pacote 10 consultas", 79.9, 10, TxPending, PaymentPIX, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := st.CreateTransaction(context.Background(), Transaction{
		UserID: "u-1", UserEmail: "a@b.com", PackageType: "pack10", PackageName: "Pacote 10 consultas", Amount: 79.9, Credits: 10,
		Status: TxConfirmed,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if tx.ID == "" || tx.Status != TxPending || tx.PaymentMethod != PaymentPIX {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConfirmTransaction(t *testing.T) {
	st, mock := newMockStore(t)
	id := "0e7c1d3a-9a0b-4c55-8f1e-5a8f3f0f2d44"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE transactions SET status=$2, confirmed_at=$3 WHERE id=$1 AND status=$4 RETURNING `+transactionColumns)).
		WithArgs(id, TxConfirmed, fixedNow, TxPending).
		WillReturnRows(sqlmock.NewRows(txCols).AddRow(id, "u-1", "a@b.com", "pack10", "Pacote 10", "79.90", 10, TxConfirmed, PaymentPIX, fixedNow.Add(-time.Hour), fixedNow))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET credits = credits + $2 WHERE id=$1`)).
		WithArgs("u-1", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := st.ConfirmTransaction(context.Background(), id)
	if err != nil {
		t.Fatalf("ConfirmTransaction: %v", err)
	}
	if tx.Amount != 79.9 || tx.ConfirmedAt == nil || !tx.ConfirmedAt.Equal(fixedNow) {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConfirmTransactionNotPending(t *testing.T) {
	st, mock := newMockStore(t)
	id := "0e7c1d3a-9a0b-4c55-8f1e-5a8f3f0f2d44"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE transactions SET status=$2`)).
		WillReturnRows(sqlmock.NewRows(txCols))
	mock.ExpectRollback()

	if _, err := st.ConfirmTransaction(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := st.ConfirmTransaction(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListTransactions(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions ORDER BY created_at DESC LIMIT $1`)).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(txCols).AddRow("t-1", "u-1", "a@b.com", "individual", "Consulta individual", 9.9, 1, TxPending, PaymentPIX, fixedNow, nil))

	got, err := st.ListTransactions(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 1 || got[0].ConfirmedAt != nil {
		t.Fatalf("unexpected transactions %+v", got)
	}
}

func TestExpirePendingTransactions(t *testing.T) {
	st, mock := newMockStore(t)
	cutoff := fixedNow.Add(-72 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE transactions SET status=$1 WHERE status=$2 AND created_at < $3`)).
		WithArgs(TxExpired, TxPending, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := st.ExpirePendingTransactions(context.Background(), cutoff)
	if err != nil || n != 3 {
		t.Fatalf("ExpirePendingTransactions = %d, %v", n, err)
	}
}

func TestStats(t *testing.T) {
	st, mock := newMockStore(t)
	dayStart := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`(SELECT COUNT(*) FROM users)`)).
		WithArgs(TxConfirmed, dayStart).
		WillReturnRows(sqlmock.NewRows([]string{"u", "s", "r", "t"}).AddRow(12, 40, "399.50", 2))

	s, err := st.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s != (Stats{TotalUsers: 12, TotalSearches: 40, TotalRevenue: 399.5, TodaySales: 2}) {
		t.Fatalf("unexpected stats %+v", s)
	}
}
