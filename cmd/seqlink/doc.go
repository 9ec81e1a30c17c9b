// Package main hosts the seqlink CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into sequence
// queries: linking clips to image sequences on disk, indexing search roots
// ahead of time, probing image headers, and reporting readiness. It
// centralizes configuration resolution, logger setup, and the optional
// persistent index so subcommands only describe what to run.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
