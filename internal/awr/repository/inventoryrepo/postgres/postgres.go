package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	repo "github.com/Leopold1975/awr_control/internal/awr/repository/inventoryrepo"
	"github.com/Leopold1975/awr_control/internal/pkg/pgtools"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InventoryPostgresRepo struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) InventoryPostgresRepo {
	return InventoryPostgresRepo{
		db: db,
	}
}

func (ir InventoryPostgresRepo) ListMaterials(ctx context.Context) ([]models.Material, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "name", "unit", "total").
		From("materials").
		OrderBy("position ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := ir.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	materials := make([]models.Material, 0, 8) //nolint:gomnd

	for rows.Next() {
		var (
			m    models.Material
			unit string
		)

		if err := rows.Scan(&m.ID, &m.Name, &unit, &m.Total); err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		m.Unit = models.Unit(unit)
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return materials, nil
}

func (ir InventoryPostgresRepo) ListTools(ctx context.Context) ([]models.Tool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "name", "serial", "assigned_to").
		From("tools").
		OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := ir.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tools := make([]models.Tool, 0)

	for rows.Next() {
		var t models.Tool

		if err := rows.Scan(&t.ID, &t.Name, &t.Serial, &t.AssignedTo); err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		tools = append(tools, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tools, nil
}

func (ir InventoryPostgresRepo) ListBrigades(ctx context.Context) ([]models.Brigade, error) { //nolint:cyclop
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "name").From("brigades").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := ir.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	brigades := make([]models.Brigade, 0, 10) //nolint:gomnd
	index := make(map[int]int)

	for rows.Next() {
		b := models.Brigade{Materials: make([]models.Holding, 0), Tools: make([]string, 0)}

		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			rows.Close()

			return nil, fmt.Errorf("scan error %w", err)
		}

		index[b.ID] = len(brigades)
		brigades = append(brigades, b)
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	query, args, err = psql.Select("bm.brigade_id", "bm.material_id", "bm.amount").
		From("brigade_materials bm").
		Join("materials m ON m.id = bm.material_id").
		Where("bm.amount <> 0").
		OrderBy("bm.brigade_id ASC", "m.position ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	hrows, err := ir.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer hrows.Close()

	for hrows.Next() {
		var (
			brigadeID int
			h         models.Holding
		)

		if err := hrows.Scan(&brigadeID, &h.MaterialID, &h.Amount); err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		if i, ok := index[brigadeID]; ok {
			brigades[i].Materials = append(brigades[i].Materials, h)
		}
	}

	if err := hrows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	tools, err := ir.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	for _, t := range tools {
		if t.AssignedTo == nil {
			continue
		}

		if i, ok := index[*t.AssignedTo]; ok {
			brigades[i].Tools = append(brigades[i].Tools, t.Serial)
		}
	}

	return brigades, nil
}

func (ir InventoryPostgresRepo) AdjustMaterial(ctx context.Context, //nolint:nonamedreturns
	id string, delta float64,
) (m models.Material, err error) {
	tx, err := ir.db.Begin(ctx)
	if err != nil {
		return models.Material{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "adjust")
	}()

	m, err = lockMaterial(ctx, tx, id)
	if err != nil {
		return models.Material{}, err
	}

	if m.Total+delta < 0 {
		return models.Material{}, repo.ErrInsufficientQuantity
	}

	m.Total += delta

	if err := setMaterialTotal(ctx, tx, m); err != nil {
		return models.Material{}, err
	}

	return m, nil
}

func (ir InventoryPostgresRepo) TransferMaterial(ctx context.Context, //nolint:nonamedreturns,cyclop
	id string, brigadeID int, amount float64,
) (m models.Material, err error) {
	tx, err := ir.db.Begin(ctx)
	if err != nil {
		return models.Material{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "transfer")
	}()

	m, err = lockMaterial(ctx, tx, id)
	if err != nil {
		return models.Material{}, err
	}

	if err := brigadeExists(ctx, tx, brigadeID); err != nil {
		return models.Material{}, err
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("amount").
		From("brigade_materials").
		Where(squirrel.Eq{"brigade_id": brigadeID, "material_id": id}).
		Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return models.Material{}, fmt.Errorf("to sql error: %w", err)
	}

	var held float64

	if err := tx.QueryRow(ctx, query, args...).Scan(&held); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return models.Material{}, fmt.Errorf("scan error: %w", err)
	}

	if m.Total-amount < 0 || held+amount < 0 {
		return models.Material{}, repo.ErrInsufficientQuantity
	}

	m.Total -= amount

	if err := setMaterialTotal(ctx, tx, m); err != nil {
		return models.Material{}, err
	}

	query, args, err = psql.Insert("brigade_materials").
		Columns("brigade_id", "material_id", "amount").
		Values(brigadeID, id, held+amount).
		Suffix("ON CONFLICT (brigade_id, material_id) DO UPDATE SET amount = EXCLUDED.amount").ToSql()
	if err != nil {
		return models.Material{}, fmt.Errorf("to sql error: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return models.Material{}, fmt.Errorf("exec error: %w", err)
	}

	return m, nil
}

func (ir InventoryPostgresRepo) AssignTool(ctx context.Context, //nolint:nonamedreturns
	serial string, brigadeID *int,
) (t models.Tool, err error) {
	tx, err := ir.db.Begin(ctx)
	if err != nil {
		return models.Tool{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "assign")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "name", "serial", "assigned_to").
		From("tools").
		Where(squirrel.Eq{"serial": serial}).
		Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return models.Tool{}, fmt.Errorf("to sql error: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&t.ID, &t.Name, &t.Serial, &t.AssignedTo); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tool{}, repo.ErrNotFound
		}

		return models.Tool{}, fmt.Errorf("scan error: %w", err)
	}

	if brigadeID != nil {
		if err := brigadeExists(ctx, tx, *brigadeID); err != nil {
			return models.Tool{}, err
		}

		if t.AssignedTo != nil && *t.AssignedTo != *brigadeID {
			return models.Tool{}, repo.ErrToolAssigned
		}
	}

	query, args, err = psql.Update("tools").
		Set("assigned_to", brigadeID).
		Where(squirrel.Eq{"serial": serial}).ToSql()
	if err != nil {
		return models.Tool{}, fmt.Errorf("to sql error: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return models.Tool{}, fmt.Errorf("exec error: %w", err)
	}

	t.AssignedTo = brigadeID

	return t, nil
}

func lockMaterial(ctx context.Context, tx pgx.Tx, id string) (models.Material, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "name", "unit", "total").
		From("materials").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return models.Material{}, fmt.Errorf("to sql error: %w", err)
	}

	var (
		m    models.Material
		unit string
	)

	if err := tx.QueryRow(ctx, query, args...).Scan(&m.ID, &m.Name, &unit, &m.Total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Material{}, repo.ErrNotFound
		}

		return models.Material{}, fmt.Errorf("scan error: %w", err)
	}

	m.Unit = models.Unit(unit)

	return m, nil
}

func setMaterialTotal(ctx context.Context, tx pgx.Tx, m models.Material) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Update("materials").
		Set("total", m.Total).
		Where(squirrel.Eq{"id": m.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

func brigadeExists(ctx context.Context, tx pgx.Tx, id int) error {
	var exists bool

	err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM brigades WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}

	if !exists {
		return repo.ErrBrigadeNotFound
	}

	return nil
}
