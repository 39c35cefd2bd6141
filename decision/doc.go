// Package decision implements ensemble decision making over a
// chain-of-thought generation provider: the same question is asked N
// times at varying temperatures, each answer is decoded into a strictly
// typed value, and the attempts are aggregated by vote into one result
// with a reproducible confidence score.
//
// The engine never returns an error for "the model was wrong" or "not
// enough information"; both surface as typed Result statuses.
package decision
