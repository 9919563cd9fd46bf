package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"SlicerQC/internal/domain"
	"SlicerQC/internal/ports"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	recordsTable = "inspection_records"
)

var recordColumns = []string{
	"id",
	"recorded_at",
	"equipment_id",
	"variant",
	"solid_range",
	"extracted_date",
	"extracted_time",
	"measured_x_bar",
	"max_measured",
	"min_measured",
	"lower_bound",
	"upper_bound",
	"status",
}

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS inspection_records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			recorded_at TEXT NOT NULL,
			equipment_id TEXT NOT NULL,
			variant TEXT NOT NULL,
			solid_range TEXT NOT NULL,
			extracted_date TEXT NOT NULL,
			extracted_time TEXT NOT NULL,
			measured_x_bar REAL,
			max_measured REAL,
			min_measured REAL,
			lower_bound REAL NOT NULL,
			upper_bound REAL NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inspection_records_date ON inspection_records (extracted_date)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS inspection_records (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			recorded_at TEXT NOT NULL,
			equipment_id TEXT NOT NULL,
			variant TEXT NOT NULL,
			solid_range TEXT NOT NULL,
			extracted_date TEXT NOT NULL,
			extracted_time TEXT NOT NULL,
			measured_x_bar DOUBLE PRECISION,
			max_measured DOUBLE PRECISION,
			min_measured DOUBLE PRECISION,
			lower_bound DOUBLE PRECISION NOT NULL,
			upper_bound DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inspection_records_date ON inspection_records (extracted_date)`,
	},
}

// SQLRepository persists committed inspection records. Insertion order is
// the autoincrement seq column.
type SQLRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.HistoryStore = (*SQLRepository)(nil)

// Open connects with the given driver, applies SQLite pragmas and creates the schema.
func Open(ctx context.Context, driver, dsn string) (*SQLRepository, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}

	if driver == DriverSQLite {
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
			}
		}
	}

	repo := NewSQLRepository(db, driver)
	if err := repo.initSchema(ctx, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLRepository wires an existing sql.DB; placeholders follow the driver.
func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == DriverPostgres {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &SQLRepository{db: db, builder: builder}
}

// Close releases the connection pool.
func (r *SQLRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLRepository) initSchema(ctx context.Context, driver string) error {
	for _, stmt := range schemas[driver] {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Append stores a committed record at the end of History.
func (r *SQLRepository) Append(ctx context.Context, record domain.InspectionRecord) error {
	query, args, err := r.builder.Insert(recordsTable).
		Columns(recordColumns...).
		Values(
			record.ID,
			record.Timestamp,
			record.EquipmentID,
			string(record.Variant),
			record.SolidRange,
			record.ExtractedDate,
			record.ExtractedTime,
			nullable(record.MeasuredXBar),
			nullable(record.MaxMeasured),
			nullable(record.MinMeasured),
			record.Lower,
			record.Upper,
			string(record.Status),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert record %s: %w", record.ID, err)
	}
	return nil
}

// Remove deletes the record with the given id; false when absent.
func (r *SQLRepository) Remove(ctx context.Context, id string) (bool, error) {
	query, args, err := r.builder.Delete(recordsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete record %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns every record in insertion order.
func (r *SQLRepository) List(ctx context.Context) ([]domain.InspectionRecord, error) {
	return r.query(ctx, r.selectRecords())
}

// ListByDates returns records whose extracted date is one of dates, in insertion order.
func (r *SQLRepository) ListByDates(ctx context.Context, dates ...string) ([]domain.InspectionRecord, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	return r.query(ctx, r.selectRecords().Where(sq.Eq{"extracted_date": dates}))
}

func (r *SQLRepository) selectRecords() sq.SelectBuilder {
	return r.builder.Select(recordColumns...).From(recordsTable).OrderBy("seq ASC")
}

func (r *SQLRepository) query(ctx context.Context, b sq.SelectBuilder) ([]domain.InspectionRecord, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	var result []domain.InspectionRecord
	for rows.Next() {
		var (
			rec                  domain.InspectionRecord
			variant, status      string
			xbar, maxVal, minVal sql.NullFloat64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Timestamp,
			&rec.EquipmentID,
			&variant,
			&rec.SolidRange,
			&rec.ExtractedDate,
			&rec.ExtractedTime,
			&xbar,
			&maxVal,
			&minVal,
			&rec.Lower,
			&rec.Upper,
			&status,
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Variant = domain.Variant(variant)
		rec.Status = domain.ResultStatus(status)
		rec.MeasuredXBar = fromNull(xbar)
		rec.MaxMeasured = fromNull(maxVal)
		rec.MinMeasured = fromNull(minVal)
		result = append(result, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
