// Package pagereader provides a checkpointable keyset-paginated reader.
//
// Overview
//
// A Reader streams the rows of a query in pages ordered by a list of sort
// keys. Every page after the first is selected with a tuple predicate on the
// last row seen (the Cursor), so the cost of a page does not grow with its
// position in the stream:
//
//	(k0 > v0) OR (k0 = v0 AND k1 > v1) OR ...
//
// Key concepts
//   - SortKeys: the ordering. The columns together must identify a row.
//   - QueryProvider: renders the first page and remaining pages queries.
//     SelectQueryProvider builds them from a FROM clause and a filter.
//   - Executor: runs a page query. GormExecutor runs it through gorm.
//   - RowMapper: maps a row to an item and extracts its sort key values.
//   - ExecutionContext: where Update stores the restart cursor and Open
//     restores it from.
//   - Worker: a per-goroutine consumer of a shared Reader. Page fetches are
//     serialized, so no page is read twice.
//
// Restart
//
// Update stores the cursor after the last fetched page when the number of
// items read is a multiple of the page size, and the cursor before the page in
// progress otherwise. When several workers hold half-read pages, the cursor
// before the oldest of them is stored. A restart can re-deliver rows read since
// the stored cursor, never skip one.
package pagereader
