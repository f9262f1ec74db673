package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/verificapessoa/verificapessoa/internal/report"
	"github.com/verificapessoa/verificapessoa/internal/store"
)

func TestStoreAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		tcPostgres.WithDatabase("verifica"),
		tcPostgres.WithUsername("verifica"),
		tcPostgres.WithPassword("verifica"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://verifica:verifica@%s:%s/verifica?sslmode=disable", host, port.Port())

	var st *store.Store
	deadline := time.Now().Add(30 * time.Second)
	for {
		st, err = store.NewWithDSN(ctx, dsn)
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	defer st.Close()

	if err := store.Migrate("file://../../migrations", dsn, "up", 0); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	u, err := st.CreateUser(ctx, "Ana@Example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := st.CreateUser(ctx, "ana@example.com", "hash"); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("duplicate err = %v", err)
	}

	rep := report.Assembler{EngineCount: 3}.Assemble(report.Subject{Name: "João da Silva"}, report.Findings{}, 0)
	if _, err := st.RecordSearch(ctx, u.ID, report.Subject{Name: "João da Silva"}, rep); !errors.Is(err, store.ErrInsufficientCredits) {
		t.Fatalf("search without credits err = %v", err)
	}

	tx, err := st.CreateTransaction(ctx, store.Transaction{UserID: u.ID, UserEmail: u.Email, PackageType: "individual", PackageName: "Consulta individual", Amount: 9.9, Credits: 1})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if _, err := st.ConfirmTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("ConfirmTransaction: %v", err)
	}
	if _, err := st.ConfirmTransaction(ctx, tx.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second confirm err = %v", err)
	}

	rec, err := st.RecordSearch(ctx, u.ID, report.Subject{Name: "João da Silva"}, rep)
	if err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}
	got, err := st.GetSearch(ctx, rec.ID, u.ID)
	if err != nil {
		t.Fatalf("GetSearch: %v", err)
	}
	if !got.Report.Timestamp.Equal(rep.Timestamp) || got.Report.RiskAssessment != rep.RiskAssessment {
		t.Fatalf("report did not round-trip: %+v", got.Report)
	}
	after, err := st.GetUser(ctx, u.ID)
	if err != nil || after.Credits != 0 {
		t.Fatalf("credits after search = %d, %v", after.Credits, err)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalUsers != 1 || stats.TotalSearches != 1 || stats.TotalRevenue != 9.9 || stats.TodaySales != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
