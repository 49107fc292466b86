// Package output renders command results as tables, JSON, YAML, CSV or bare
// values, plus the status views and panels shown for clusters and
// nodepools.
//
// Structured formats operate on the JSON form of a value, so JSON, YAML and
// CSV all use the API field names.
package output
