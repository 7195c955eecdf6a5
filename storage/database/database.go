package database

import (
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/convivencia/core"
)

// Engines
const (
	EnginePostgres = "postgres"
	EngineMySQL    = "mysql"
	EngineSQLite   = "sqlite"
)

var (
	//go:embed migrations/*/*.sql
	migrationsFS embed.FS

	gooseMu sync.Mutex // goose keeps its dialect and FS globally

	ErrUnknownEngine = errors.New("unknown database engine")
)

// Open opens the configured database. The returned handle binds parameters the engine's way,
// use (*sqlx.DB).Rebind on `?` queries.
func Open(conf *core.Config) (*sqlx.DB, error) {
	switch conf.Database.Engine {
	case EnginePostgres:
		db, err := openPostgres(conf.Database.Name, false, conf)
		if err != nil {
			return nil, err
		}
		return sqlx.NewDb(db, "postgres"), nil
	case EngineMySQL:
		db, err := openMySQL(conf.Database.Name, false, conf)
		if err != nil {
			return nil, err
		}
		return sqlx.NewDb(db, "mysql"), nil
	case EngineSQLite:
		return OpenSQLite(conf.Database.Path)
	default:
		return nil, errors.Wrap(ErrUnknownEngine, conf.Database.Engine)
	}
}

// OpenSQLite opens (and creates if needed) the sqlite database file at path.
func OpenSQLite(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite database")
	}
	db.SetMaxOpenConns(1) // single writer
	return sqlx.NewDb(db, "sqlite3"), nil
}

func openPostgres(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sql.Open("postgres", u.String())
}

func openMySQL(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	cfg := mysql.NewConfig()
	cfg.User = conf.Database.User
	cfg.Passwd = conf.Database.Password
	if admin && conf.Database.AdminUser != "" {
		cfg.User = conf.Database.AdminUser
		cfg.Passwd = conf.Database.AdminPassword
	}
	cfg.Net = "tcp"
	cfg.Addr = conf.Database.Address()
	cfg.DBName = dbName
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = true // goose migrations
	if !conf.Database.DisableTLS {
		cfg.TLSConfig = "true"
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// CreateIfNotExist creates the application database (and the postgres app role) when missing.
// For sqlite it only makes sure the database directory exists.
func CreateIfNotExist(conf *core.Config) error {
	switch conf.Database.Engine {
	case EnginePostgres:
		return createPostgres(conf)
	case EngineMySQL:
		return createMySQL(conf)
	case EngineSQLite:
		if err := os.MkdirAll(filepath.Dir(conf.Database.Path), 0o755); err != nil {
			return errors.Wrap(err, "creating database directory")
		}
		return nil
	default:
		return errors.Wrap(ErrUnknownEngine, conf.Database.Engine)
	}
}

func createPostgres(conf *core.Config) error {
	// connect as admin
	db, err := openPostgres("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(db, conf); err != nil {
		return errors.Wrap(err, "creating app user")
	}

	// create DB as app user
	appDB, err := openPostgres("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = appDB.Close() }()

	var exists bool
	if err = appDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name).Scan(&exists); err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !exists {
		if _, err = appDB.Exec(fmt.Sprintf("CREATE DATABASE %q", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

func createAppUser(db *sql.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	var exists bool
	if err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", conf.Database.User).Scan(&exists); err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !exists {
		// DDL statements cannot take bind parameters
		q := fmt.Sprintf("CREATE USER %q CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, escapeLiteral(conf.Database.Password))
		if _, err := db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createMySQL(conf *core.Config) error {
	db, err := openMySQL("", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	q := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4", conf.Database.Name)
	if _, err = db.Exec(q); err != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}

func escapeLiteral(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'')
		}
		out = append(out, r)
	}
	return string(out)
}

// Migrate applies all pending migrations.
func Migrate(db *sqlx.DB, engine string, logger core.Logger) error {
	if err := RunMigrations("up", db, engine, logger); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrations runs a goose command (up, down, status, version, redo, ...) with the embedded migrations.
func RunMigrations(command string, db *sqlx.DB, engine string, logger core.Logger, args ...string) error {
	var dialect string
	switch engine {
	case EnginePostgres:
		dialect = "postgres"
	case EngineMySQL:
		dialect = "mysql"
	case EngineSQLite:
		dialect = "sqlite3"
	default:
		return errors.Wrap(ErrUnknownEngine, engine)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{logger})
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	return goose.Run(command, db.DB, "migrations/"+engine, args...)
}

// gooseLogger sends goose output to the app logger.
type gooseLogger struct {
	logger core.Logger
}

func (l gooseLogger) Fatal(v ...interface{}) { l.logger.Fatal(fmt.Sprint(v...)) }
func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal(fmt.Sprintf(format, v...))
}
func (l gooseLogger) Print(v ...interface{})   { l.logger.Info(fmt.Sprint(v...)) }
func (l gooseLogger) Println(v ...interface{}) { l.logger.Info(fmt.Sprint(v...)) }
func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}
