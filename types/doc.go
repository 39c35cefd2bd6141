// Package types contains shared types used across decisionflow:
// the structured error type and the error codes the engine and the
// generation boundary agree on.
package types
