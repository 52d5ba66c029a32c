package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Shared with the repository_test package, which drives the services against
// a real database.

func Pool() *pgxpool.Pool { return testPool }

var (
	AllTables    = allTables
	CleanupTable = cleanupTable
)
