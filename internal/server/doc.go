// Package server implements the HTTP API for the remediation engine
//
// This package exposes the engine's operations and read-only snapshots as
// REST endpoints, and streams engine events over a WebSocket
package server
