package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/saviobatista/eco-flight/internal/aircraft"
	"github.com/saviobatista/eco-flight/internal/types"
)

// Client reads and replaces reference data in PostgreSQL
type Client struct {
	db *sql.DB
}

// New creates a new database client
func New(connStr string) (*Client, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	return &Client{db: db}, nil
}

// NewWithDB wraps an existing connection
func NewWithDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// DB returns the underlying connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Ping verifies the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// GetAirports retrieves the airport registry
func (c *Client) GetAirports(ctx context.Context) ([]types.Airport, error) {
	query := `
		SELECT code, name, latitude, longitude
		FROM airports
		ORDER BY code
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query airports: %w", err)
	}
	defer rows.Close()

	var airports []types.Airport
	for rows.Next() {
		var a types.Airport
		if err := rows.Scan(&a.Code, &a.Name, &a.Latitude, &a.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan airport: %w", err)
		}
		airports = append(airports, a)
	}
	return airports, rows.Err()
}

// GetEmissionFactors retrieves the emission factor mapping in stored order
func (c *Client) GetEmissionFactors(ctx context.Context) ([]types.EmissionFactor, error) {
	query := `
		SELECT aircraft_code, factor_per_nm
		FROM aircraft_emission_factors
		ORDER BY position
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query emission factors: %w", err)
	}
	defer rows.Close()

	var factors []types.EmissionFactor
	for rows.Next() {
		var f types.EmissionFactor
		if err := rows.Scan(&f.AircraftCode, &f.FactorPerNM); err != nil {
			return nil, fmt.Errorf("failed to scan emission factor: %w", err)
		}
		factors = append(factors, f)
	}
	return factors, rows.Err()
}

// GetFuelRecords retrieves the fuel consumption table in stored order
func (c *Client) GetFuelRecords(ctx context.Context) ([]types.FuelConsumptionRecord, error) {
	query := `
		SELECT raw_name, max_passengers, fuel_burn_kg_per_km
		FROM fuel_consumption
		ORDER BY position
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fuel consumption: %w", err)
	}
	defer rows.Close()

	var records []types.FuelConsumptionRecord
	for rows.Next() {
		var (
			r          types.FuelConsumptionRecord
			passengers sql.NullInt64
			fuelBurn   sql.NullFloat64
		)
		if err := rows.Scan(&r.RawName, &passengers, &fuelBurn); err != nil {
			return nil, fmt.Errorf("failed to scan fuel record: %w", err)
		}
		r.NormalizedName = aircraft.NormalizeName(r.RawName)
		if passengers.Valid {
			r.MaxPassengers = int(passengers.Int64)
		}
		if fuelBurn.Valid {
			r.FuelBurnKgPerKm = fuelBurn.Float64
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ReplaceReferenceData swaps all reference tables in a single transaction
func (c *Client) ReplaceReferenceData(ctx context.Context, data *types.ReferenceData) (err error) {
	if data == nil {
		data = &types.ReferenceData{}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `TRUNCATE airports, aircraft_emission_factors, fuel_consumption`); err != nil {
		return fmt.Errorf("failed to truncate reference tables: %w", err)
	}

	if err = copyRows(ctx, tx, "airports",
		[]string{"code", "name", "latitude", "longitude"}, airportRows(data.Airports),
	); err != nil {
		return err
	}
	if err = copyRows(ctx, tx, "aircraft_emission_factors",
		[]string{"position", "aircraft_code", "factor_per_nm"}, factorRows(data.EmissionFactors),
	); err != nil {
		return err
	}
	if err = copyRows(ctx, tx, "fuel_consumption",
		[]string{"position", "raw_name", "max_passengers", "fuel_burn_kg_per_km"}, fuelRows(data.FuelRecords),
	); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reference data: %w", err)
	}
	return nil
}

// airportRows keeps the first entry of each upper-cased code
func airportRows(airports []types.Airport) [][]interface{} {
	seen := make(map[string]bool, len(airports))
	rows := make([][]interface{}, 0, len(airports))
	for _, a := range airports {
		code := strings.ToUpper(strings.TrimSpace(a.Code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		rows = append(rows, []interface{}{code, a.Name, a.Latitude, a.Longitude})
	}
	return rows
}

// factorRows writes one row per code at its first position with its last value
func factorRows(factors []types.EmissionFactor) [][]interface{} {
	index := make(map[string]int, len(factors))
	rows := make([][]interface{}, 0, len(factors))
	for _, f := range factors {
		if f.AircraftCode == "" {
			continue
		}
		if i, ok := index[f.AircraftCode]; ok {
			rows[i][2] = f.FactorPerNM
			continue
		}
		index[f.AircraftCode] = len(rows)
		rows = append(rows, []interface{}{len(rows), f.AircraftCode, f.FactorPerNM})
	}
	return rows
}

func fuelRows(records []types.FuelConsumptionRecord) [][]interface{} {
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.RawName) == "" {
			continue
		}
		rows = append(rows, []interface{}{
			len(rows), r.RawName, nullPositiveInt(r.MaxPassengers), nullPositiveFloat(r.FuelBurnKgPerKm),
		})
	}
	return rows
}

// copyRows bulk loads rows with COPY FROM STDIN
func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy into %s: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to copy row %d into %s: %w", i, table, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to flush copy into %s: %w", table, err)
	}
	return nil
}

func nullPositiveInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v > 0}
}

func nullPositiveFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v > 0}
}
