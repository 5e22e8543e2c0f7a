package store_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/gsarma/jobboard/internal/store"
)

// exerciseBackend runs the shared Backend contract against b.
func exerciseBackend(t *testing.T, b store.Backend) {
	t.Helper()
	ctx := context.Background()

	if _, err := b.Get(ctx, "user"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get on empty backend: err = %v, want ErrNotFound", err)
	}
	if err := b.Put(ctx, "user", []byte("first")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.Put(ctx, "user", []byte("second")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, err := b.Get(ctx, "user")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("second")) {
		t.Errorf("Get = %q, want %q", got, "second")
	}
	if err := b.Delete(ctx, "user"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := b.Delete(ctx, "user"); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
	if _, err := b.Get(ctx, "user"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get after Delete: err = %v, want ErrNotFound", err)
	}
}

func TestFileBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "jobboard")
	exerciseBackend(t, store.NewFileBackend(dir))
}

func TestFileBackend_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	b := store.NewFileBackend(dir)
	if err := b.Put(context.Background(), "user", []byte("{}")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "user.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only user.json in dir, got %d entries", len(entries))
	}
}

func TestFileBackend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.NewFileBackend(t.TempDir()).Put(ctx, "user", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Put err = %v, want context.Canceled", err)
	}
}

func TestSQLiteBackend(t *testing.T) {
	b, err := store.OpenSQLite(filepath.Join(t.TempDir(), "jobboard.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer b.Close()
	exerciseBackend(t, b)
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	if _, err := store.OpenSQLite("  "); err == nil {
		t.Error("expected error for empty path")
	}
}

// --- postgres ---

type stubRow struct {
	value []byte
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.value
	return nil
}

// stubDB implements store.DBTX over a map, recognising the three
// statements PostgresBackend issues.
type stubDB struct {
	rows  map[string][]byte
	execs []string
}

func (s *stubDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, sql)
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		s.rows[args[0].(string)] = args[1].([]byte)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(sql, "DELETE"):
		delete(s.rows, args[0].(string))
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (s *stubDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	v, ok := s.rows[args[0].(string)]
	if !ok {
		return stubRow{err: pgx.ErrNoRows}
	}
	return stubRow{value: v}
}

var _ store.DBTX = (*stubDB)(nil)

func TestPostgresBackend(t *testing.T) {
	db := &stubDB{rows: map[string][]byte{}}
	b := store.NewPostgresBackend(db)
	if err := b.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	exerciseBackend(t, b)
}

func TestPostgresBackend_QueryError(t *testing.T) {
	b := store.NewPostgresBackend(&errDB{})
	_, err := b.Get(context.Background(), "user")
	if err == nil || errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get err = %v, want a non-ErrNotFound error", err)
	}
}

type errDB struct{}

func (errDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, pgx.ErrTxClosed
}

func (errDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return stubRow{err: pgx.ErrTxClosed}
}

// --- redis ---

type stubRedis struct {
	data map[string]string
	err  error
}

func (s *stubRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if s.err != nil {
		return redis.NewStringResult("", s.err)
	}
	v, ok := s.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	if s.err != nil {
		return redis.NewStatusResult("", s.err)
	}
	s.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if s.err != nil {
		return redis.NewIntResult(0, s.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := s.data[k]; ok {
			delete(s.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisBackend(t *testing.T) {
	rdb := &stubRedis{data: map[string]string{}}
	b := store.NewRedisBackend(rdb)
	exerciseBackend(t, b)

	_ = b.Put(context.Background(), "user", []byte("x"))
	if _, ok := rdb.data["jobboard:user"]; !ok {
		t.Error("expected key to be namespaced with jobboard: prefix")
	}
}

func TestRedisBackend_Errors(t *testing.T) {
	b := store.NewRedisBackend(&stubRedis{data: map[string]string{}, err: errors.New("connection refused")})
	ctx := context.Background()
	if _, err := b.Get(ctx, "user"); err == nil || errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get err = %v, want connection error", err)
	}
	if err := b.Put(ctx, "user", []byte("x")); err == nil {
		t.Error("Put should fail")
	}
	if err := b.Delete(ctx, "user"); err == nil {
		t.Error("Delete should fail")
	}
}
