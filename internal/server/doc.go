// Package server implements the HTTP API for the workflow service
package server
