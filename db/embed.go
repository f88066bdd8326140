// Package db provides the embedded database schema and default seed data.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables. It is safe
// to execute more than once.
//
//go:embed migrations/001_schema.sql
var Schema string

// Warehouses is the default warehouse data set as a JSON array.
//
//go:embed seed/warehouses.json
var Warehouses []byte
