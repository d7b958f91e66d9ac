// Package sqlstore implements the credential and key stores on database/sql
// for the embedded SQLite and MySQL backends.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jinxlo/api-dashboard/internal/config"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect identifies the SQL engine behind a DB
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// DB wraps a database/sql handle and its dialect
type DB struct {
	SQL     *sql.DB
	Dialect Dialect
}

// Supports reports whether rawURL selects one of the database/sql backends
func Supports(rawURL string) bool {
	_, _, err := parseURL(rawURL)
	return err == nil
}

// Open connects to the database named by cfg.URL
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dialect, dsn, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	switch dialect {
	case DialectSQLite:
		// one writer at a time; readers share the connection
		conn.SetMaxOpenConns(1)
	case DialectMySQL:
		if cfg.MaxConns > 0 {
			conn.SetMaxOpenConns(int(cfg.MaxConns))
		}
		if cfg.MinConns > 0 {
			conn.SetMaxIdleConns(int(cfg.MinConns))
		}
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	return &DB{SQL: conn, Dialect: dialect}, nil
}

// NewDB wraps an existing handle
func NewDB(conn *sql.DB, dialect Dialect) *DB {
	return &DB{SQL: conn, Dialect: dialect}
}

// Close closes the underlying handle
func (db *DB) Close() error {
	return db.SQL.Close()
}

// Ping verifies database connectivity
func (db *DB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

func (db *DB) isUniqueViolation(err error) bool {
	switch db.Dialect {
	case DialectMySQL:
		var myErr *mysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == 1062
	case DialectSQLite:
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			code := liteErr.Code()
			return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
		}
	}
	return false
}

func parseURL(rawURL string) (Dialect, string, error) {
	raw := strings.TrimSpace(rawURL)

	switch {
	case strings.HasPrefix(raw, "sqlite://"):
		return DialectSQLite, sqliteDSN(strings.TrimPrefix(raw, "sqlite://")), nil
	case strings.HasPrefix(raw, "file:"):
		return DialectSQLite, sqliteDSN(raw), nil
	case strings.HasPrefix(raw, "mysql://"):
		dsn, err := mysqlDSN(raw)
		if err != nil {
			return "", "", err
		}
		return DialectMySQL, dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported database url scheme: %q", redact(raw))
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func mysqlDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid mysql url: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	cfg.MultiStatements = true
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	q := u.Query()
	if tls := q.Get("tls"); tls != "" {
		cfg.TLSConfig = tls
		q.Del("tls")
	}
	if len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k := range q {
			cfg.Params[k] = q.Get(k)
		}
	}

	if cfg.DBName == "" {
		return "", errors.New("mysql url must name a database")
	}

	return cfg.FormatDSN(), nil
}

func redact(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.User != nil {
		u.User = url.User(u.User.Username())
		return u.String()
	}
	return raw
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
