// Package model defines the data structures shared across the archiver:
// fetched resources, the tagged fetch-kind, and the per-run archive report.
// These types carry no behavior beyond derived accessors so that the
// crawler, fetch, archive, and report packages can share them without
// import cycles.
package model
