// Package goroutine parses textual goroutine dumps into records.
//
// A dump is the text produced by runtime.Stack(buf, true), a SIGQUIT
// crash, or the /debug/pprof/goroutine?debug=2 endpoint: blocks separated by
// a blank line, each starting with a header such as
//
//	goroutine 637 [IO wait, 5 minutes]:
//
// followed by frame lines, tab-indented file:line continuation lines, and an
// optional trailing "created by ... in goroutine N" line.
//
// # Parsing
//
// [Parser.Parse] splits a dump into blocks and turns each block into a
// [Record]. Parsing is lenient on purpose: dumps routinely contain truncated or
// garbled blocks, so a block with a bad header or no frames is dropped and an
// unparseable wait duration becomes zero minutes. Neither case is an error.
//
// # Signatures
//
// Every record carries a signature ([Record.TopFunction]) used to group
// goroutines that are blocked in the same place. The signature is the
// canonical name of the innermost frame; when that frame is not first-party
// code (it does not start with [CorePrefix]) the first first-party frame is
// appended, separated by [SignatureSeparator]. See [Signature].
//
// # Other formats
//
// [NormalizeHTML] converts the legacy HTML table capture and
// [NormalizeProfile] converts a binary pprof goroutine profile into the
// native text format, so the rest of the pipeline only deals with text.
package goroutine
