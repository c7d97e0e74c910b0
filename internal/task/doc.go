// Package task runs content generation outside the request cycle. The
// Tracker owns the persisted lifecycle of each generation task, and the
// Runner feeds jobs through a bounded queue to a fixed pool of workers so a
// submitting request returns as soon as the task row exists. Pending tasks
// are rebuilt from their records after a restart.
package task
