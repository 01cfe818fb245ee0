// Package util provides common utility functions and data structures
//
// This package includes the generic set used by plan validation and the
// engine's status transition tables
package util
