// Package api defines the core data types shared by the remediation engine
//
// This package contains the workflow plan and step model, step and workflow
// status, execution log entries, engine events, the step execution wire
// protocol, and HTTP messages
package api
