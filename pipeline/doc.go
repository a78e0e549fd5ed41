// Package pipeline runs the four-phase competitor analysis: extract,
// score, synthesize insights, persist.
//
// The orchestrator degrades instead of aborting wherever a later phase
// can still produce value. Extraction and scoring failures are fatal;
// history validation, insight generation and persistence failures turn
// into warnings on the Result while the already computed outputs stay
// available.
package pipeline
