// Package queue persists the job history in SQLite.
//
// Every job accepted by the gateway gets a row that moves through
// queued -> running -> completed|failed. The table records the recording key,
// its recorder metadata, the best composite score, and the error text of
// failed runs so operators can inspect past runs with `highlighter jobs`.
//
// The database is treated as an operational log rather than an archive.
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package queue
