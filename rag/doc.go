// Package rag grounds language-model prompts in historical competitor
// records and validates new extractions against them.
//
// The Service exposes three operations sharing one retrieval primitive:
//
//   - GetRelevantContext: top-k similarity search over stored snapshots,
//     returned as a Retrieval that distinguishes "no similar history"
//     from "retrieval backend down" (Degraded).
//   - BuildRAGPrompt: augments a base prompt with compact evidence
//     blocks; with no retrieved context the base prompt passes through
//     unchanged.
//   - ValidateAgainstHistory: flags contradictions between newly
//     extracted facts and similar prior records.
//
// Retrieval is a best-effort enhancement. Backend failures and timeouts
// degrade to empty context with a warning log; they never fail the
// caller.
package rag
