// Package report groups parsed goroutines by signature and prints reports.
//
// Four report shapes are available:
//
//   - [WriteCSV]: one row per goroutine, the canonical machine-readable dump
//   - [WriteRanked]: groups ranked by size (or by longest wait), filtered by
//     a minimum group size
//   - [WriteGrouped]: every group with its five longest-waiting goroutines
//   - [WriteJSON]: groups and their members as JSON
//
// All writers buffer their output and return the first write error, so a
// caller can tell when the downstream reader went away.
package report
