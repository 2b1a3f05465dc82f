package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/views/internal/models"
)

const queryTimeout = 5 * time.Second

// PostgresRepository keeps view documents in a jsonb column.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects and pings. maxConns <= 0 keeps the pgx
// default.
func NewPostgresRepository(ctx context.Context, connString string, maxConns int32) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) List(ctx context.Context, page string) ([]*models.TableView, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT id, page, view, view_order, created_at, updated_at
		FROM table_views
		WHERE page = $1
		ORDER BY view_order, id
	`, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list table views: %w", err)
	}
	defer rows.Close()

	views := []*models.TableView{}
	for rows.Next() {
		tv, err := scanTableView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, tv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate table views: %w", err)
	}
	return views, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.TableView, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		SELECT id, page, view, view_order, created_at, updated_at
		FROM table_views
		WHERE id = $1
	`, id)
	tv, err := scanTableView(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tv, err
}

func (r *PostgresRepository) Create(ctx context.Context, page string, view catalog.Document) (*models.TableView, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	data, err := encodeView(view)
	if err != nil {
		return nil, err
	}
	tv := &models.TableView{Page: page, View: view}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO table_views (page, view, view_order)
		VALUES ($1, $2, (SELECT COALESCE(MAX(view_order), -1) + 1 FROM table_views WHERE page = $1))
		RETURNING id, view_order, created_at, updated_at
	`, page, data).Scan(&tv.ID, &tv.ViewOrder, &tv.CreatedAt, &tv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create table view: %w", err)
	}
	tv.View.ViewOrder = tv.ViewOrder
	return tv, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, view catalog.Document) (*models.TableView, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	data, err := encodeView(view)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE table_views
		SET view = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, page, view, view_order, created_at, updated_at
	`, id, data)
	tv, err := scanTableView(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tv, err
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM table_views WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete table view: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Reorder(ctx context.Context, order []model.ViewOrder) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, o := range order {
		tag, err := tx.Exec(ctx, `
			UPDATE table_views SET view_order = $2, updated_at = NOW() WHERE id = $1
		`, o.ID, o.ViewOrder)
		if err != nil {
			return fmt.Errorf("failed to reorder table view %d: %w", o.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %d", ErrNotFound, o.ID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}
	return nil
}

func scanTableView(row pgx.Row) (*models.TableView, error) {
	var tv models.TableView
	var data []byte
	if err := row.Scan(&tv.ID, &tv.Page, &data, &tv.ViewOrder, &tv.CreatedAt, &tv.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan table view: %w", err)
	}
	if err := decodeView(&tv, data); err != nil {
		return nil, err
	}
	return &tv, nil
}
