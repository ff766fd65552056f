package sqlbase

import "strconv"

// Dialect captures the SQL differences between supported databases.
type Dialect struct {
	Name string

	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// Postgres uses numbered $n parameters.
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
}

// SQLite uses positional ? parameters.
var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
}

// Migrations is the schema shared by every SQL backend.
func Migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS schedules (
				name VARCHAR(255) PRIMARY KEY,
				body TEXT NOT NULL,
				current_node TEXT,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_schedules_updated_at ON schedules(updated_at);
		`,
	}
}
