package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/princinho/parkingbackend/models"
)

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// SlowQuery is the threshold above which gorm logs a statement.
	SlowQuery time.Duration
}

// Open connects to DATABASE_URL. postgres:// and postgresql:// URLs use
// the pgx-backed postgres driver; sqlite:// URLs use the pure Go sqlite
// driver with foreign keys enforced.
func Open(ctx context.Context, databaseURL string, opts Options) (*gorm.DB, error) {
	dialector, memory, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	slow := opts.SlowQuery
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(slogWriter{}, logger.Config{
			SlowThreshold:             slow,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if memory {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	slog.Info("Database connected", slog.String("dialect", db.Dialector.Name()))
	return db, nil
}

// slogWriter routes gorm's logger output through slog.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...), slog.String("type", "db"))
}

func dialectorFor(databaseURL string) (gorm.Dialector, bool, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), false, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		// sqlite:///abs/path keeps its leading slash, sqlite://./rel is relative
		if path == "" {
			return nil, false, fmt.Errorf("sqlite url has no path: %q", databaseURL)
		}
		if path == ":memory:" {
			return sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), true, nil
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return sqlite.Open(path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), false, nil
	default:
		return nil, false, fmt.Errorf("unsupported DATABASE_URL scheme: %q", databaseURL)
	}
}

// Close releases the connection pool.
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Warn("Failed to close database", slog.Any("error", err))
	}
}

// Migrate creates tables in foreign key order and then the indexes gorm
// tags cannot express.
func Migrate(ctx context.Context, db *gorm.DB) error {
	tables := []any{
		&models.User{},
		&models.Slot{},
		&models.Booking{},
		&models.RevokedToken{},
	}
	for _, model := range tables {
		if err := db.WithContext(ctx).AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_bookings_slot_date ON bookings(slot_id, booking_date);",
		// at most one active booking per slot and day
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_bookings_active_slot_date ON bookings(slot_id, booking_date) WHERE status <> 'cancelled';",
		"CREATE INDEX IF NOT EXISTS idx_bookings_date_order ON bookings(booking_date, id);",
	}
	for _, stmt := range indexes {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	slog.Info("Database schema up to date")
	return nil
}
