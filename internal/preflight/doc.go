// Package preflight provides readiness checks for the filesystem paths and
// external binaries seqlink depends on.
//
// The CLI "seqlink status" command prints every result, and "seqlink link"
// refuses to start when RunAll reports a failure.
package preflight
