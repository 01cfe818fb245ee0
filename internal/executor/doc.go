// Package executor provides StepExecutor implementations
//
// Executors perform the real action behind a remediation step: calling a
// remote remediation gateway over HTTP, simulating outcomes the way the
// operations dashboard does, or dispatching by step type to other executors
package executor
