package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sandeepkv93/taskflow/internal/model"
)

// SQLRepository stores records in any of the supported SQL drivers. Queries
// are written with '?' placeholders and rebound for the driver.
type SQLRepository struct {
	db      *sqlx.DB
	dialect Dialect
	log     *slog.Logger
	// loc is the zone due dates are read back in.
	loc *time.Location
}

func NewSQLRepository(log *slog.Logger, db *sqlx.DB) (*SQLRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	dialect, err := DialectFor(db.DriverName())
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if dialect == DialectSQLite {
		// One connection keeps per-connection pragmas and in-memory databases consistent.
		db.SetMaxOpenConns(1)
	}
	return &SQLRepository{db: db, dialect: dialect, log: log, loc: time.Local}, nil
}

func OpenSQL(log *slog.Logger, driver, dsn string) (*SQLRepository, error) {
	conn, err := connString(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := ensureParentDir(driver, dsn); err != nil {
		return nil, fmt.Errorf("prepare sqlite dir: %w", err)
	}
	db, err := sqlx.Open(driver, conn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	repo, err := NewSQLRepository(log, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	repo.log.Debug("sql repository opened", "driver", driver, "dialect", repo.dialect)
	return repo, nil
}

func (r *SQLRepository) Migrate() error {
	return MigrateUp(r.db.DB, r.dialect)
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) CreateTask(ctx context.Context, in model.Task) (model.Task, error) {
	q := r.db.Rebind(`
		INSERT INTO tasks (title, description, category_id, priority, due_date, completed, completed_at, archived, created_at, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM tasks))
		RETURNING id, sort_order`)
	out := in.Clone()
	err := r.db.QueryRowxContext(ctx, q,
		in.Title, in.Description, in.CategoryID, string(in.Priority), nullDate(in.DueDate),
		boolInt(in.Completed), nullTime(in.CompletedAt), boolInt(in.Archived), mustTime(in.CreatedAt),
	).Scan(&out.ID, &out.Order)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.Task{}, model.ErrUnknownCategory
		}
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) GetTask(ctx context.Context, id int64) (model.Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("get task: %w", err)
	}
	return row.toModel(r.loc)
}

func (r *SQLRepository) UpdateTask(ctx context.Context, in model.Task) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE tasks
		SET title = ?, description = ?, category_id = ?, priority = ?, due_date = ?, completed = ?, completed_at = ?, archived = ?, sort_order = ?
		WHERE id = ?`),
		in.Title, in.Description, in.CategoryID, string(in.Priority), nullDate(in.DueDate),
		boolInt(in.Completed), nullTime(in.CompletedAt), boolInt(in.Archived), in.Order, in.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrUnknownCategory
		}
		return fmt.Errorf("update task: %w", err)
	}
	return checkRowsAffected(res)
}

func (r *SQLRepository) DeleteTask(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return checkRowsAffected(res)
}

func (r *SQLRepository) BulkDeleteTasks(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM tasks WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("build bulk delete: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete tasks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r *SQLRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if filter.CategoryID > 0 {
		clauses = append(clauses, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Archived != nil {
		clauses = append(clauses, "archived = ?")
		args = append(args, boolInt(*filter.Archived))
	}
	if filter.Completed != nil {
		clauses = append(clauses, "completed = ?")
		args = append(args, boolInt(*filter.Completed))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	switch filter.OrderBy {
	case OrderBySort:
		query += ` ORDER BY sort_order ASC, id ASC`
	case OrderByCreated:
		query += ` ORDER BY created_at ASC, id ASC`
	default:
		query += ` ORDER BY id ASC`
	}
	query += r.pagination(&args, filter.Limit, filter.Offset)

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.toModel(r.loc)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *SQLRepository) CreateCategory(ctx context.Context, in model.Category) (model.Category, error) {
	q := r.db.Rebind(`
		INSERT INTO categories (name, color, icon, sort_order)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM categories))
		RETURNING id, sort_order`)
	out := in
	if err := r.db.QueryRowxContext(ctx, q, in.Name, in.Color, in.Icon).Scan(&out.ID, &out.Order); err != nil {
		return model.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	var row categoryRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+categoryColumns+` FROM categories WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Category{}, ErrNotFound
		}
		return model.Category{}, fmt.Errorf("get category: %w", err)
	}
	return row.toModel(), nil
}

func (r *SQLRepository) UpdateCategory(ctx context.Context, in model.Category) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE categories SET name = ?, color = ?, icon = ?, sort_order = ? WHERE id = ?`),
		in.Name, in.Color, in.Icon, in.Order, in.ID,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return checkRowsAffected(res)
}

func (r *SQLRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return checkRowsAffected(res)
}

func (r *SQLRepository) ListCategories(ctx context.Context, filter CategoryListFilter) ([]model.Category, error) {
	args := make([]any, 0, 2)
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY sort_order ASC, id ASC` +
		r.pagination(&args, filter.Limit, filter.Offset)
	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]model.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *SQLRepository) pagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 && r.dialect == DialectSQLite {
		// SQLite only accepts OFFSET after a LIMIT.
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
