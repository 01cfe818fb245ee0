// Package engine implements the stepwise remediation workflow engine
//
// The engine owns a loaded WorkflowPlan together with its StatusTracker and
// ExecutionLog, drives steps one at a time through an injected StepExecutor,
// auto-chains successful steps when auto mode is on, and signals completion
// exactly once per plan. All mutable state is guarded by the engine; callers
// only ever see snapshots
package engine
