//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
	"github.com/xenking/gtin-catalog/internal/sheet"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "gs1cat",
				"POSTGRES_PASSWORD": "gs1cat",
				"POSTGRES_DB":       "gs1cat",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		return 1
	}
	defer func() { _ = pg.Terminate(context.Background()) }()

	host, err := pg.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "host: %v\n", err)
		return 1
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "mapped port: %v\n", err)
		return 1
	}

	dsn := fmt.Sprintf("postgres://gs1cat:gs1cat@%s:%s/gs1cat?sslmode=disable", host, port.Port())
	testPool, err = NewPool(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pool: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "migrations: %v\n", err)
		return 1
	}
	// Migrations are idempotent.
	if err := RunMigrations(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "migrations rerun: %v\n", err)
		return 1
	}

	return m.Run()
}

func TestRunRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(testPool)

	started := time.Now().UTC().Truncate(time.Millisecond)
	run := &barcode.Run{
		ID:         uuid.New().String(),
		InputPath:  "/in/products.xlsx",
		OutputPath: "/out/result.xlsx",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Total:      2,
		Failed:     1,
		Results: []barcode.ResultRow{
			{
				InputRow: barcode.InputRow{
					Description: "Polo shirt",
					Reference:   "P-1",
					ImageLink:   "https://cdn.example.com/p-1.jpg",
					Brand:       "Acme",
					NetWeight:   sheet.ParseNumber("200"),
					GrossWeight: sheet.ParseNumber("250,5"),
					NCM:         "61091000",
					GPC:         "10001234",
				},
				EAN:    "7891234567895",
				Status: "ACTIVE",
			},
			{
				InputRow: barcode.InputRow{
					Description: "Cap",
					Reference:   "C-1",
					NetWeight:   sheet.ParseNumber("n/a"),
					NCM:         "65050000",
					CEST:        "2803800",
					GPC:         "10001235",
				},
				Status: barcode.StatusError,
				Note:   "duplicate",
			},
		},
	}

	require.NoError(t, repo.Save(ctx, run))

	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, runs)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.InputPath, got.InputPath)
	assert.Equal(t, run.OutputPath, got.OutputPath)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Failed)

	results, err := repo.Results(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "P-1", results[0].Reference)
	assert.Equal(t, "https://cdn.example.com/p-1.jpg", results[0].ImageLink)
	assert.Equal(t, "Acme", results[0].Brand)
	assert.Empty(t, results[1].Brand)
	assert.Equal(t, "7891234567895", results[0].EAN)
	assert.Equal(t, "250.5", results[0].GrossWeight.Decimal.String())
	assert.False(t, results[1].NetWeight.Valid)
	assert.Equal(t, "2803800", results[1].CEST)
	assert.Equal(t, "duplicate", results[1].Note)
}

func TestRunRepository_SaveDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(testPool)

	run := &barcode.Run{
		ID:         uuid.New().String(),
		InputPath:  "/in/a.xlsx",
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}
	require.NoError(t, repo.Save(ctx, run))
	assert.Error(t, repo.Save(ctx, run))
}

func TestRunRepository_ListDefaultLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(testPool)

	runs, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(runs), DefaultListLimit)
}

func TestRunRepository_ResultsUnknownRun(t *testing.T) {
	repo := NewRunRepository(testPool)

	_, err := repo.Results(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, barcode.ErrRunNotFound)
}

func TestRunRepository_ResultsEmptyRun(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(testPool)

	run := &barcode.Run{
		ID:         uuid.New().String(),
		InputPath:  "/in/empty.xlsx",
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}
	require.NoError(t, repo.Save(ctx, run))

	results, err := repo.Results(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}
