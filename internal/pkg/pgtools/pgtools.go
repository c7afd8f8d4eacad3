package pgtools

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/awr_control/internal/pkg/config"
	"github.com/Leopold1975/awr_control/internal/pkg/retrytools"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // driver for migrations
	"github.com/pressly/goose/v3"
)

// Коды ошибок postgres, которые репозитории переводят в свои ошибки.
const (
	ForeignKeyViolation = "23503"
	UniqueViolation     = "23505"
)

// IsViolation проверяет, что в цепочке err есть ошибка postgres с кодом code.
func IsViolation(err error, code string) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == code
}

func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool error: %w", err)
	}

	if err := retrytools.PingWithRetry(ctx, db.Ping); err != nil {
		db.Close()

		return nil, fmt.Errorf("ping db error: %w", err)
	}

	return db, nil
}

// ConnString собирает строку подключения для пула.
func ConnString(cfg config.PostgresDB) string {
	return "postgres://" + cfg.Username + ":" + cfg.Password + "@" +
		cfg.Addr + "/" + cfg.DB + "?" + "sslmode=" + cfg.SSLmode + "&pool_max_conns=" + cfg.MaxConns
}

// Open подключается к базе и накатывает миграции до cfg.Version
// (0 - до последней).
func Open(ctx context.Context, cfg config.PostgresDB) (*pgxpool.Pool, error) {
	db, err := Connect(ctx, ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to db error: %w", err)
	}

	if err := ApplyMigration(cfg); err != nil {
		db.Close()

		return nil, fmt.Errorf("apply migration error: %w", err)
	}

	return db, nil
}

func ApplyMigration(cfg config.PostgresDB) error {
	migrationsDir := cfg.MigrationsDir
	defaultVersion := 0

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect error: %w", err)
	}

	connString := "postgres://" + cfg.Username + ":" + cfg.Password + "@" +
		cfg.Addr + "/" + cfg.DB + "?sslmode=" + cfg.SSLmode

	dbM, err := goose.OpenDBWithDriver("pgx", connString)
	if err != nil {
		return fmt.Errorf("goose open pgx db error: %w", err)
	}
	defer dbM.Close()

	if cfg.Reload {
		if err := goose.DownTo(dbM, migrationsDir, int64(defaultVersion)); err != nil {
			return fmt.Errorf("goose down error: %w", err)
		}
	}

	if cfg.Version == 0 {
		if err := goose.Up(dbM, migrationsDir); err != nil {
			return fmt.Errorf("goose up error: %w", err)
		}

		return nil
	}

	if err := goose.UpTo(dbM, migrationsDir, int64(cfg.Version)); err != nil {
		return fmt.Errorf("goose up error: %w", err)
	}

	return nil
}

// Shutdown закрывает пул, не дольше чем позволяет ctx.
func Shutdown(ctx context.Context, db *pgxpool.Pool) error {
	done := make(chan struct{})

	go func() {
		db.Close()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context error: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func CommitOrRollback(ctx context.Context, tx pgx.Tx, err error, where string) error {
	if err == nil {
		if errT := tx.Commit(ctx); errT != nil {
			err = fmt.Errorf("commit error: %w", errT)
		}
	} else {
		if errT := tx.Rollback(ctx); errT != nil {
			err = fmt.Errorf("%s error: %w rollback error: %w", where, err, errT)
		} else {
			err = fmt.Errorf("%s error: %w", where, err)
		}
	}

	return err
}
