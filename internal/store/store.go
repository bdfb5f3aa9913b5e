package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	gap "github.com/muesli/go-app-paths"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DBName is the history database file name inside the data directory
const DBName = "history.db"

// Store is the history database
type Store struct {
	db  *sql.DB
	sq  sq.StatementBuilderType
	now func() time.Time
}

// DefaultPath returns the history database location in the user data dir
func DefaultPath() (string, error) {
	scope := gap.NewScope(gap.User, "svxaux")
	p, err := scope.DataPath(DBName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}
	return p, nil
}

// Open opens the sqlite database at dbPath and applies migrations
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("make db dir: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps the pragmas in effect for every statement
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, sq: sq.StatementBuilder, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL UNIQUE,
        applied_at TEXT NOT NULL
    )`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		var n int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE name = ?`, name).Scan(&n)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations(name, applied_at) VALUES (?, ?)`, name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// Synthesis is one rendered announcement clip
type Synthesis struct {
	ID         string
	CreatedAt  time.Time
	Provider   string
	Voice      string
	Locale     string
	Text       string
	OutputPath string
	Bytes      int64
	Error      string
}

// CheckRun is the outcome of checking one locale catalog
type CheckRun struct {
	ID         string
	CreatedAt  time.Time
	BasePath   string
	LocalePath string
	Language   string
	Required   int
	Present    int
	Errors     int
	Warnings   int
}

var (
	synthesisColumns = []string{"id", "created_at", "provider", "voice", "locale", "text", "output_path", "bytes", "error"}
	checkColumns     = []string{"id", "created_at", "base_path", "locale_path", "language", "required", "present", "errors", "warnings"}
)

// RecordSynthesis stores s, filling in ID and CreatedAt when unset
func (s *Store) RecordSynthesis(ctx context.Context, rec *Synthesis) error {
	s.stamp(&rec.ID, &rec.CreatedAt)
	q := s.sq.Insert("syntheses").
		Columns(synthesisColumns...).
		Values(rec.ID, formatTime(rec.CreatedAt), rec.Provider, rec.Voice, rec.Locale, rec.Text,
			rec.OutputPath, rec.Bytes, rec.Error)
	if _, err := q.RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("record synthesis: %w", err)
	}
	return nil
}

// RecentSyntheses returns the newest syntheses first. A limit <= 0
// returns all of them.
func (s *Store) RecentSyntheses(ctx context.Context, limit int) ([]Synthesis, error) {
	q := newestFirst(s.sq.Select(synthesisColumns...).From("syntheses"), limit)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query syntheses: %w", err)
	}
	defer rows.Close()

	var out []Synthesis
	for rows.Next() {
		var rec Synthesis
		var created string
		if err := rows.Scan(&rec.ID, &created, &rec.Provider, &rec.Voice, &rec.Locale, &rec.Text,
			&rec.OutputPath, &rec.Bytes, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan synthesis: %w", err)
		}
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordCheck stores a catalog check run, filling in ID and CreatedAt when unset
func (s *Store) RecordCheck(ctx context.Context, rec *CheckRun) error {
	s.stamp(&rec.ID, &rec.CreatedAt)
	q := s.sq.Insert("catalog_checks").
		Columns(checkColumns...).
		Values(rec.ID, formatTime(rec.CreatedAt), rec.BasePath, rec.LocalePath, rec.Language,
			rec.Required, rec.Present, rec.Errors, rec.Warnings)
	if _, err := q.RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("record check: %w", err)
	}
	return nil
}

// RecentChecks returns the newest check runs first
func (s *Store) RecentChecks(ctx context.Context, limit int) ([]CheckRun, error) {
	q := newestFirst(s.sq.Select(checkColumns...).From("catalog_checks"), limit)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	var out []CheckRun
	for rows.Next() {
		var rec CheckRun
		var created string
		if err := rows.Scan(&rec.ID, &created, &rec.BasePath, &rec.LocalePath, &rec.Language,
			&rec.Required, &rec.Present, &rec.Errors, &rec.Warnings); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// newestFirst orders by insertion time; rowid breaks ties within one tick
func newestFirst(q sq.SelectBuilder, limit int) sq.SelectBuilder {
	q = q.OrderBy("created_at DESC", "rowid DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}

func (s *Store) stamp(id *string, created *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if created.IsZero() {
		*created = s.now()
	}
}

// timeLayout has a fixed width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
