// Package client is a Go client for the remedy engine's HTTP API
package client
