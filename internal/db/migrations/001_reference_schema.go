package migrations

// ReferenceSchema creates the reference data tables
var ReferenceSchema = &Migration{
	ID:   "001_reference_schema",
	Name: "001_reference_schema",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS airports (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
			longitude DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180)
		);

		-- position preserves mapping order, which decides partial-match precedence
		CREATE TABLE IF NOT EXISTS aircraft_emission_factors (
			position INTEGER PRIMARY KEY,
			aircraft_code TEXT NOT NULL UNIQUE,
			factor_per_nm DOUBLE PRECISION NOT NULL
		);

		CREATE TABLE IF NOT EXISTS fuel_consumption (
			position INTEGER PRIMARY KEY,
			raw_name TEXT NOT NULL,
			max_passengers INTEGER,
			fuel_burn_kg_per_km DOUBLE PRECISION
		);
	`,
	DownSQL: `
		DROP TABLE IF EXISTS fuel_consumption;
		DROP TABLE IF EXISTS aircraft_emission_factors;
		DROP TABLE IF EXISTS airports;
	`,
}
