// Package sqlstore is a store.Backend on SQLite.
//
// Documents and their objects live in two tables; object properties are
// kept as a JSON column. Statements are built with squirrel.
package sqlstore
