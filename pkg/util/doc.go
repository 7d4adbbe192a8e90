// Package util provides common utility functions and data structures
//
// This package includes the generic set implementation used to validate
// closed enumerations throughout the workflow engine
package util
