// Package db holds the PostgreSQL schema and the sqlc queries generated from it.
package db

import _ "embed"

// Schema is the idempotent DDL applied on startup by the SQL backend.
//
//go:embed schema.sql
var Schema string
