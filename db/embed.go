// Package db provides the embedded run journal schema.
package db

import _ "embed"

// Schema contains the DDL statements for the journal tables. Every statement
// is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
