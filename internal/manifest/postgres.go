/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package manifest

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"galleria/internal/domain"
	applog "galleria/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresSource renders the gallery_images table into manifest JSON.
type PostgresSource struct {
	DB *sql.DB
}

// OpenPostgres opens dsn with the pgx driver, pings it and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSource, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PostgresSource{DB: db}, nil
}

// Close releases the pool.
func (s *PostgresSource) Close() error { return s.DB.Close() }

// dialect=PostgreSQL
const selectManifest = `SELECT COALESCE(json_agg(json_strip_nulls(json_build_object(
	'filename', filename,
	'preview-2', NULLIF(preview_2, ''),
	'fandom', fandom,
	'tags', tags,
	'rating', NULLIF(rating, ''),
	'date', NULLIF(date, '')
)) ORDER BY position), '[]'::json) FROM gallery_images`

func (s *PostgresSource) Fetch(ctx context.Context) ([]byte, error) {
	var raw []byte
	if err := s.DB.QueryRowContext(ctx, selectManifest).Scan(&raw); err != nil {
		return nil, fmt.Errorf("select manifest: %w", err)
	}
	return raw, nil
}

// Replace swaps the table contents for recs in a single transaction.
func (s *PostgresSource) Replace(ctx context.Context, recs []domain.ImageRecord) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM gallery_images`); err != nil {
		return fmt.Errorf("clear gallery_images: %w", err)
	}
	for i, r := range recs {
		fandom, _ := json.Marshal(nonNil(r.Fandom))
		tags, _ := json.Marshal(nonNil(r.Tags))
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO gallery_images(position, filename, preview_2, fandom, tags, rating, date) VALUES($1,$2,$3,$4,$5,$6,$7)`,
			i, r.Filename, r.SecondaryFilename, string(fandom), string(tags), r.Rating, r.Date); err != nil {
			return fmt.Errorf("insert %s: %w", r.Filename, err)
		}
	}
	return tx.Commit()
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// applyMigrations applies embedded SQL migrations in filename order and records them.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	lg := applog.WithOperation(applog.WithComponent("manifest"), "migrate")
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		lg.Info("applying migration", "file", fname)
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1,$2)`, version, fname); err != nil {
			return fmt.Errorf("record %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	parts := strings.SplitN(path.Base(name), "_", 2)
	if len(parts) < 2 {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
