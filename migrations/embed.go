// Package migrations embeds the schema for every supported storage driver.
package migrations

import "embed"

// Postgres holds the migrations under postgres/.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds the migrations under sqlite/.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
