// Package sequence discovers numbered image sequences on disk and links them
// to time ranges.
//
// A Cache walks a search root once and groups the files of every directory
// into buckets keyed by their masked filename (shot.1001.exr becomes
// shot.####.exr). Matching a bucket against Criteria probes only its first
// and last file, and the probe results are memoized on the bucket. Build
// turns a matched bucket into a Descriptor, and Linker ties the steps
// together for one Query.
//
// The Cache carries no locking; use one Cache per logical caller.
package sequence
