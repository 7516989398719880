package transcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"subcards/internal/services"
)

// ErrLocked is returned by Open when another process holds the cache.
var ErrLocked = errors.New("translation cache is locked by another process")

// Store is a SQLite-backed translation cache.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open creates or opens the cache database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "mkdir", "Failed to create cache directory", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "cache", "lock", "Failed to lock translation cache", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTransient, "cache", "lock", path, ErrLocked)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, lock: lock}
	if err := store.applyMigrations(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database and releases the lock. It is safe to call more
// than once.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
		s.db = nil
	}
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
		s.lock = nil
	}
	return err
}

// Key returns the cache key for text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns cached translations for texts into lang, keyed by source text.
// Misses are simply absent from the result.
func (s *Store) Get(ctx context.Context, lang string, texts []string) (map[string]string, error) {
	lang = normalizeLang(lang)
	stmt, err := s.db.PrepareContext(ctx, "SELECT translation FROM translations WHERE source_hash = ? AND target_lang = ?")
	if err != nil {
		return nil, fmt.Errorf("prepare cache lookup: %w", err)
	}
	defer stmt.Close()

	hits := make(map[string]string)
	for _, text := range texts {
		if _, done := hits[text]; done {
			continue
		}
		var translation string
		err := stmt.QueryRowContext(ctx, Key(text), lang).Scan(&translation)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("cache lookup: %w", err)
		}
		hits[text] = translation
	}
	return hits, nil
}

// Put stores source to translation pairs for lang.
func (s *Store) Put(ctx context.Context, lang, provider string, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}
	lang = normalizeLang(lang)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO translations (source_hash, target_lang, source_text, translation, provider, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(source_hash, target_lang) DO UPDATE SET
            translation = excluded.translation,
            provider = excluded.provider,
            created_at = excluded.created_at`)
	if err != nil {
		return fmt.Errorf("prepare cache insert: %w", err)
	}
	defer stmt.Close()

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	for source, translation := range pairs {
		if _, err := stmt.ExecContext(ctx, Key(source), lang, source, translation, provider, timestamp); err != nil {
			return fmt.Errorf("cache insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache tx: %w", err)
	}
	return nil
}

// LangCount is the number of cached rows for one target language.
type LangCount struct {
	Lang  string
	Count int
}

// Stats describes the cache contents.
type Stats struct {
	Path      string
	SizeBytes int64
	Total     int
	ByLang    []LangCount
	Providers []string
}

// Stats reports row counts per target language.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}
	if info, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = info.Size()
	}

	rows, err := s.db.QueryContext(ctx, "SELECT target_lang, COUNT(1) FROM translations GROUP BY target_lang ORDER BY target_lang")
	if err != nil {
		return stats, fmt.Errorf("cache stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lc LangCount
		if err := rows.Scan(&lc.Lang, &lc.Count); err != nil {
			return stats, fmt.Errorf("scan cache stats: %w", err)
		}
		stats.Total += lc.Count
		stats.ByLang = append(stats.ByLang, lc)
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	provRows, err := s.db.QueryContext(ctx, "SELECT DISTINCT provider FROM translations ORDER BY provider")
	if err != nil {
		return stats, fmt.Errorf("cache providers: %w", err)
	}
	defer provRows.Close()
	for provRows.Next() {
		var provider string
		if err := provRows.Scan(&provider); err != nil {
			return stats, fmt.Errorf("scan cache providers: %w", err)
		}
		stats.Providers = append(stats.Providers, provider)
	}
	return stats, provRows.Err()
}

// Clear deletes every cached translation and returns the number removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM translations")
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func normalizeLang(lang string) string {
	return strings.ToUpper(strings.TrimSpace(lang))
}
