package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/views/internal/models"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteRepository is a single-file store for local and embedded use. It
// creates its schema on open.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite has a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (r *SQLiteRepository) Close() {
	_ = r.db.Close()
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) List(ctx context.Context, page string) ([]*models.TableView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, page, view, view_order, created_at, updated_at
		FROM table_views
		WHERE page = ?
		ORDER BY view_order, id`, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list table views: %w", err)
	}
	defer func() { _ = rows.Close() }()

	views := []*models.TableView{}
	for rows.Next() {
		tv, err := scanSQLite(rows)
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

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*models.TableView, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, page, view, view_order, created_at, updated_at
		FROM table_views
		WHERE id = ?`, id)
	tv, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tv, err
}

func (r *SQLiteRepository) Create(ctx context.Context, page string, view catalog.Document) (*models.TableView, error) {
	data, err := encodeView(view)
	if err != nil {
		return nil, err
	}
	now := r.now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO table_views (page, view, view_order, created_at, updated_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(view_order), -1) + 1 FROM table_views WHERE page = ?), ?, ?)`,
		page, string(data), page, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create table view: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read table view id: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, view catalog.Document) (*models.TableView, error) {
	data, err := encodeView(view)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE table_views SET view = ?, updated_at = ? WHERE id = ?`,
		string(data), r.now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update table view: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM table_views WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete table view: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Reorder(ctx context.Context, order []model.ViewOrder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.now()
	for _, o := range order {
		res, err := tx.ExecContext(ctx, `
			UPDATE table_views SET view_order = ?, updated_at = ? WHERE id = ?`,
			o.ViewOrder, now, o.ID)
		if err != nil {
			return fmt.Errorf("failed to reorder table view %d: %w", o.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %d", ErrNotFound, o.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row scanner) (*models.TableView, error) {
	var tv models.TableView
	var data string
	if err := row.Scan(&tv.ID, &tv.Page, &data, &tv.ViewOrder, &tv.CreatedAt, &tv.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan table view: %w", err)
	}
	if err := decodeView(&tv, []byte(data)); err != nil {
		return nil, err
	}
	return &tv, nil
}
