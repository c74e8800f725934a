package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// Driver names accepted by Open.
const (
	DriverMemory       = "memory"
	DriverSQLite       = "sqlite3"
	DriverSQLitePureGo = "sqlite"
	DriverPostgres     = "pgx"
)

const defaultBusyTimeoutMs = 5000

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func init() {
	// sqlx does not know the pure-Go sqlite driver name.
	sqlx.BindDriver(DriverSQLitePureGo, sqlx.QUESTION)
}

func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite, DriverSQLitePureGo:
		return DialectSQLite, nil
	case DriverPostgres:
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("storage: unsupported sql driver %q", driver)
	}
}

func IsKnownDriver(driver string) bool {
	if driver == DriverMemory {
		return true
	}
	_, err := DialectFor(driver)
	return err == nil
}

// Open returns the repository configured by driver. The memory driver ignores
// dsn. SQL repositories are migrated before they are returned.
func Open(log *slog.Logger, driver, dsn string) (Repository, error) {
	if driver == DriverMemory {
		return NewMemoryRepository(), nil
	}
	repo, err := OpenSQL(log, driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

func connString(driver, dsn string) (string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", errors.New("storage: empty dsn")
	}
	switch driver {
	case DriverSQLite:
		return mattnDSN(dsn), nil
	case DriverSQLitePureGo:
		return moderncDSN(dsn), nil
	default:
		return dsn, nil
	}
}

func mattnDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_foreign_keys=on&_busy_timeout=%d", path, sep, defaultBusyTimeoutMs)
}

func moderncDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", defaultBusyTimeoutMs))
	q.Add("_pragma", "foreign_keys(1)")
	u.RawQuery = q.Encode()
	return u.String()
}

func ensureParentDir(driver, dsn string) error {
	if driver == DriverPostgres || strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var cgoErr sqlite3.Error
	if errors.As(err, &cgoErr) {
		return cgoErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var pureErr *sqlite.Error
	if errors.As(err, &pureErr) {
		return pureErr.Code() == sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}
