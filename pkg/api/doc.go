// Package api defines the core data types for the workflow engine
//
// This package contains all the shared types used across the engine,
// including workflow and step definitions, input and output declarations,
// retry policies, run results, and HTTP messages
package api
