// Package licenses lists the licenses of a Go module's direct dependencies.
//
// An audit has four steps:
//
//  1. [ParseGoMod] reads the direct (non-indirect) requirements of a go.mod.
//  2. A [Locator] finds each module's directory in the local module cache.
//     [GoLocator] asks `go mod download -json`; [CachedLocator] remembers
//     the answers between runs.
//  3. [FindLicenseFile] picks the license file in that directory.
//  4. [Classify] guesses the license from its text with fixed keyword
//     heuristics, falling back to [Unknown].
//
// [Auditor] runs the steps for every dependency. A dependency that fails at
// any step is logged and reported as [Unknown] rather than failing the
// audit. [WriteCSV] prints the result table.
package licenses
