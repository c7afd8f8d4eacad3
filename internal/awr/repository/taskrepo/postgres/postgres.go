package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	repo "github.com/Leopold1975/awr_control/internal/awr/repository/taskrepo"
	"github.com/Leopold1975/awr_control/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TasksPostgresRepo struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) TasksPostgresRepo {
	return TasksPostgresRepo{
		db: db,
	}
}

var taskColumns = []string{ //nolint:gochecknoglobals
	"id", "address", "description", "access", "note", "brigade_id", "status", "created_by", "created_at",
}

func scanTask(row pgx.Row) (models.Task, error) {
	var (
		t      models.Task
		status string
	)

	err := row.Scan(&t.ID, &t.Address, &t.Description, &t.Access, &t.Note,
		&t.BrigadeID, &status, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return models.Task{}, err //nolint:wrapcheck
	}

	t.Status = models.Status(status)

	return t, nil
}

func (tr TasksPostgresRepo) CreateTask(ctx context.Context, t models.Task) (id int, err error) { //nolint:nonamedreturns
	tx, err := tr.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("tasks").
		Columns("address", "description", "access", "note", "brigade_id", "status", "created_by", "created_at").
		Values(t.Address, t.Description, t.Access, t.Note, t.BrigadeID, string(t.Status), t.CreatedBy, t.CreatedAt).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		if pgtools.IsViolation(err, pgtools.ForeignKeyViolation) {
			return 0, repo.ErrBrigadeNotFound
		}

		return 0, fmt.Errorf("scan error: %w", err)
	}

	return id, nil
}

func (tr TasksPostgresRepo) GetTask(ctx context.Context, id int) (models.Task, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select(taskColumns...).
		From("tasks").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return models.Task{}, fmt.Errorf("to sql error: %w", err)
	}

	t, err := scanTask(tr.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, repo.ErrNotFound
		}

		return models.Task{}, fmt.Errorf("scan error: %w", err)
	}

	return t, nil
}

func (tr TasksPostgresRepo) UpdateTask(ctx context.Context, t models.Task) (err error) { //nolint:nonamedreturns
	tx, err := tr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Update("tasks").
		Set("address", t.Address).
		Set("description", t.Description).
		Set("access", t.Access).
		Set("note", t.Note).
		Set("brigade_id", t.BrigadeID).
		Set("status", string(t.Status)).
		Where(squirrel.Eq{"id": t.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if pgtools.IsViolation(err, pgtools.ForeignKeyViolation) {
			return repo.ErrBrigadeNotFound
		}

		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	return nil
}

func (tr TasksPostgresRepo) DeleteTask(ctx context.Context, id int) (err error) { //nolint:nonamedreturns
	tx, err := tr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "delete")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Delete("tasks").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	return nil
}

func (tr TasksPostgresRepo) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sb := psql.Select(taskColumns...).From("tasks")

	if f.Status != "" {
		sb = sb.Where(squirrel.Eq{"status": string(f.Status)})
	}

	if f.BrigadeID != nil {
		sb = sb.Where(squirrel.Eq{"brigade_id": *f.BrigadeID})
	}

	if f.Address != "" {
		// strpos - буквальное вхождение с учётом регистра, без спецсимволов LIKE.
		sb = sb.Where("strpos(address, ?) > 0", f.Address)
	}

	query, args, err := sb.OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0, 10) //nolint:gomnd

	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tasks, nil
}

func (tr TasksPostgresRepo) CreateReport(ctx context.Context, r models.Report) (int, error) {
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return 0, fmt.Errorf("marshall payload error: %w", err)
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("reports").
		Columns("task_id", "brigade_id", "part", "payload", "created_at").
		Values(r.TaskID, r.BrigadeID, r.Part, payload, r.CreatedAt).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	var id int

	if err := tr.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if pgtools.IsViolation(err, pgtools.ForeignKeyViolation) {
			return 0, repo.ErrNotFound
		}

		return 0, fmt.Errorf("scan error: %w", err)
	}

	return id, nil
}

func (tr TasksPostgresRepo) ListReports(ctx context.Context, taskID int) ([]models.Report, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "task_id", "brigade_id", "part", "payload", "created_at").
		From("reports").
		Where(squirrel.Eq{"task_id": taskID}).
		OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	reports := make([]models.Report, 0)

	for rows.Next() {
		var (
			r       models.Report
			payload []byte
		)

		if err := rows.Scan(&r.ID, &r.TaskID, &r.BrigadeID, &r.Part, &payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		if err := json.Unmarshal(payload, &r.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal error %w", err)
		}

		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return reports, nil
}
