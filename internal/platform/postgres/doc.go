// Package postgres provides PostgreSQL implementations of the store
// interfaces, plus the embedded schema migrations. Stores work against
// store.DBTX so the same code runs on a pool or inside a transaction.
package postgres
