// Package pkg provides the core libraries for stackscope goroutine dump
// analysis.
//
// # Overview
//
// stackscope reads goroutine dumps and groups goroutines blocked in the same
// place, so a dump of thousands of goroutines reads as a short list of
// hotspots. The pkg directory is organized into these areas:
//
//  1. [goroutine] - Parsing dumps into records, frame canonicalization, noise
//     filtering and input normalization (HTML captures, pprof profiles)
//  2. [report] - Grouping records by signature and the grouped, ranked, CSV
//     and JSON outputs
//  3. [spawn] - Which function started which goroutines, as a DOT/SVG graph
//  4. [pipeline] - Orchestration (read, normalize, parse, filter, report)
//     over stdin, one file or a directory of dumps
//  5. [licenses] - License audit of the modules required by a go.mod
//  6. [cache], [errors], [observability], [buildinfo] - Supporting
//     infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	runtime.Stack / SIGQUIT / debug=2 capture
//	         ↓
//	    [goroutine] package (normalize + parse + filter)
//	         ↓
//	    [report] package (group + rank)       [spawn] package (creator graph)
//	         ↓                                         ↓
//	    text / CSV / JSON                         DOT / SVG / PDF / PNG
//
// # Quick Start
//
//	import (
//	    "os"
//	    "github.com/matzehuels/stackscope/pkg/goroutine"
//	    "github.com/matzehuels/stackscope/pkg/report"
//	)
//
//	records := goroutine.Parse(dump)
//	_ = report.WriteRanked(os.Stdout, records, report.RankedOptions{
//	    MinCount: report.DefaultMinCount,
//	    Examples: true,
//	})
//
// The stackscope command wraps these packages; see internal/cli.
package pkg
