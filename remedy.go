// Package remedy holds the identity of the remediation engine service
package remedy

const (
	Name    = "remedy-engine"
	Version = "1.0.0"
)
