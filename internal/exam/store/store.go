// Package store provides exam-record, exam-number-sequence, and pass-score
// persistence. Every store ships an in-memory implementation for tests and
// local runs and a PostgreSQL implementation for production.
//
// The concurrency-sensitive operations live here, not in services:
//   - ApplyScoreUpdate runs as one atomic unit per exam record (the
//     in-memory store serializes under its lock, the Postgres store locks
//     the exam row inside a transaction), so two concurrent submissions
//     can never recompute the composite from a stale read.
//   - Sequence allocation is a single atomic increment per exam type and
//     year, never count-then-create.
//   - Threshold first-read creates the default via upsert semantics, so
//     racing readers cannot create duplicate records.
package store

import "sebexam/pkg/platform/sentinel"

// ErrNotFound keeps store-level 404s consistent across implementations.
var ErrNotFound = sentinel.ErrNotFound
