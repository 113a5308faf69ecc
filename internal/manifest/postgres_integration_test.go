package manifest

import (
	"context"
	"os"
	"testing"
	"time"
)

func openPGForTest(t *testing.T) *PostgresSource {
	t.Helper()
	dsn := os.Getenv("GAL_DATABASE_URL")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		t.Skip("GAL_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	src, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestPostgresSourceRoundTrip(t *testing.T) {
	src := openPGForTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	recs, err := Decode([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Replace(ctx, recs); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	res, err := Loader{Source: src, URLs: DefaultURLStrategy()}.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Records) != 3 || res.Records[1].SecondaryFilename != "b2.png" || res.Records[2].Date != "" {
		t.Fatalf("unexpected records: %+v", res.Records)
	}
	// migrations are recorded, a second run is a no-op
	if err := applyMigrations(ctx, src.DB); err != nil {
		t.Fatalf("re-apply migrations: %v", err)
	}
}
