package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spektr-org/civiclens/engine"
)

// ============================================================================
// SQLITE — Embedded database holding the four datasets as tables
// ============================================================================
// Tables mirror the CSV columns. Dates are stored as "2006-01-02" text.
// `civiclens import` fills the database from CSV; SQLiteStore.Load reads it
// back as a Provider.
// ============================================================================

const sqliteDateLayout = "2006-01-02"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS vehicles (
	state TEXT NOT NULL DEFAULT '',
	district TEXT NOT NULL DEFAULT '',
	vehicle_class TEXT NOT NULL DEFAULT '',
	fuel TEXT NOT NULL DEFAULT '',
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	value REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS outbreaks (
	state TEXT NOT NULL DEFAULT '',
	district TEXT NOT NULL DEFAULT '',
	disease_illness_name TEXT NOT NULL DEFAULT '',
	outbreak_starting_date TEXT NOT NULL,
	reporting_date TEXT NOT NULL,
	cases INTEGER NOT NULL DEFAULT 0,
	deaths INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS population (
	state TEXT NOT NULL DEFAULT '',
	district TEXT NOT NULL DEFAULT '',
	gender TEXT NOT NULL DEFAULT '',
	year INTEGER NOT NULL,
	value REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS air_quality (
	state TEXT NOT NULL DEFAULT '',
	area TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL,
	aqi_value REAL NOT NULL,
	air_quality_status TEXT NOT NULL DEFAULT '',
	prominent_pollutants TEXT NOT NULL DEFAULT '',
	number_of_monitoring_stations INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteStore reads and writes datasets in a SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and ensures the tables exist.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open dataset db: %w", err)
	}
	// a single connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// ============================================================================
// READ
// ============================================================================

// Load implements Provider.
func (s *SQLiteStore) Load(ctx context.Context) (engine.Dataset, error) {
	var ds engine.Dataset
	var err error

	if ds.Vehicles, err = s.vehicles(ctx); err != nil {
		return engine.Dataset{}, err
	}
	if ds.Outbreaks, err = s.outbreaks(ctx); err != nil {
		return engine.Dataset{}, err
	}
	if ds.Population, err = s.population(ctx); err != nil {
		return engine.Dataset{}, err
	}
	if ds.AirQuality, err = s.airQuality(ctx); err != nil {
		return engine.Dataset{}, err
	}
	return ds, nil
}

// queryAll runs query and scans every row; the result is never nil.
func queryAll[T any](ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) vehicles(ctx context.Context) ([]engine.VehicleRecord, error) {
	return queryAll(ctx, s.db,
		`SELECT state, district, vehicle_class, fuel, year, month, value FROM vehicles ORDER BY rowid`,
		func(rows *sql.Rows) (engine.VehicleRecord, error) {
			var r engine.VehicleRecord
			err := rows.Scan(&r.State, &r.District, &r.VehicleClass, &r.FuelType, &r.Year, &r.Month, &r.Count)
			return r, err
		})
}

func (s *SQLiteStore) outbreaks(ctx context.Context) ([]engine.OutbreakRecord, error) {
	return queryAll(ctx, s.db,
		`SELECT state, district, disease_illness_name, outbreak_starting_date, reporting_date, cases, deaths, status FROM outbreaks ORDER BY rowid`,
		func(rows *sql.Rows) (engine.OutbreakRecord, error) {
			var r engine.OutbreakRecord
			var start, reported string
			if err := rows.Scan(&r.State, &r.District, &r.Disease, &start, &reported, &r.Cases, &r.Deaths, &r.Status); err != nil {
				return r, err
			}
			var err error
			if r.OutbreakStart, err = time.Parse(sqliteDateLayout, start); err != nil {
				return r, err
			}
			r.ReportingDate, err = time.Parse(sqliteDateLayout, reported)
			return r, err
		})
}

func (s *SQLiteStore) population(ctx context.Context) ([]engine.PopulationRecord, error) {
	return queryAll(ctx, s.db,
		`SELECT state, district, gender, year, value FROM population ORDER BY rowid`,
		func(rows *sql.Rows) (engine.PopulationRecord, error) {
			var r engine.PopulationRecord
			err := rows.Scan(&r.State, &r.District, &r.Gender, &r.Year, &r.Count)
			return r, err
		})
}

func (s *SQLiteStore) airQuality(ctx context.Context) ([]engine.AirQualityRecord, error) {
	return queryAll(ctx, s.db,
		`SELECT state, area, date, aqi_value, air_quality_status, prominent_pollutants, number_of_monitoring_stations FROM air_quality ORDER BY rowid`,
		func(rows *sql.Rows) (engine.AirQualityRecord, error) {
			var r engine.AirQualityRecord
			var date string
			if err := rows.Scan(&r.State, &r.Area, &date, &r.AQI, &r.Status, &r.Pollutants, &r.StationCount); err != nil {
				return r, err
			}
			var err error
			r.Date, err = time.Parse(sqliteDateLayout, date)
			return r, err
		})
}

// ============================================================================
// WRITE
// ============================================================================

// Replace swaps the stored datasets for ds in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, ds engine.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vehicles; DELETE FROM outbreaks; DELETE FROM population; DELETE FROM air_quality;`); err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}

	if err := insertAll(ctx, tx,
		`INSERT INTO vehicles (state, district, vehicle_class, fuel, year, month, value) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ds.Vehicles, func(r engine.VehicleRecord) []any {
			return []any{r.State, r.District, r.VehicleClass, r.FuelType, r.Year, r.Month, r.Count}
		}); err != nil {
		return fmt.Errorf("insert vehicles: %w", err)
	}
	if err := insertAll(ctx, tx,
		`INSERT INTO outbreaks (state, district, disease_illness_name, outbreak_starting_date, reporting_date, cases, deaths, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.Outbreaks, func(r engine.OutbreakRecord) []any {
			return []any{r.State, r.District, r.Disease,
				r.OutbreakStart.Format(sqliteDateLayout), r.ReportingDate.Format(sqliteDateLayout),
				r.Cases, r.Deaths, r.Status}
		}); err != nil {
		return fmt.Errorf("insert outbreaks: %w", err)
	}
	if err := insertAll(ctx, tx,
		`INSERT INTO population (state, district, gender, year, value) VALUES (?, ?, ?, ?, ?)`,
		ds.Population, func(r engine.PopulationRecord) []any {
			return []any{r.State, r.District, r.Gender, r.Year, r.Count}
		}); err != nil {
		return fmt.Errorf("insert population: %w", err)
	}
	if err := insertAll(ctx, tx,
		`INSERT INTO air_quality (state, area, date, aqi_value, air_quality_status, prominent_pollutants, number_of_monitoring_stations) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ds.AirQuality, func(r engine.AirQualityRecord) []any {
			return []any{r.State, r.Area, r.Date.Format(sqliteDateLayout), r.AQI, r.Status, r.Pollutants, r.StationCount}
		}); err != nil {
		return fmt.Errorf("insert air quality: %w", err)
	}

	return tx.Commit()
}

func insertAll[T any](ctx context.Context, tx *sql.Tx, query string, records []T, args func(T) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, args(r)...); err != nil {
			return err
		}
	}
	return nil
}
