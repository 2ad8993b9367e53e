// Package export builds and audits the package emitted to the external
// estimating format.
//
// The compliance validator is the last line of defense: it recomputes line
// item aggregates independently of the metadata builder and may block an
// export even when every gate passed.
package export
