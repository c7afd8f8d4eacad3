package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/Leopold1975/awr_control/internal/awr/repository/userrepo"
	"github.com/Leopold1975/awr_control/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersPostgresRepo struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) UsersPostgresRepo {
	return UsersPostgresRepo{
		db: db,
	}
}

func (ur UsersPostgresRepo) CreateUser(ctx context.Context, u models.User) (err error) { //nolint:nonamedreturns
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("users").
		Columns("telegram_id", "password_hash", "user_role", "name", "brigade_id").
		Values(u.TelegramID, u.PasswordHash, string(u.Role), u.Name, u.BrigadeID).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	_, err = tx.Exec(ctx, query, args...)
	if err != nil {
		switch {
		case pgtools.IsViolation(err, pgtools.UniqueViolation):
			return userrepo.ErrAlreadyExists
		case pgtools.IsViolation(err, pgtools.ForeignKeyViolation):
			return userrepo.ErrBrigadeNotFound
		}

		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

func (ur UsersPostgresRepo) GetUserByTelegramID(ctx context.Context, telegramID int64) (models.User, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "telegram_id", "password_hash", "user_role", "name", "brigade_id").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("to sql error: %w", err)
	}

	var (
		u    models.User
		role string
	)

	if err := ur.db.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.TelegramID, &u.PasswordHash, &role, &u.Name, &u.BrigadeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, userrepo.ErrNotFound
		}

		return models.User{}, fmt.Errorf("scan error: %w", err)
	}

	u.Role = models.Role(role)

	return u, nil
}
