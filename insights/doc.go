// Package insights turns a scored competitor record into qualitative
// strengths, market opportunities and risks.
//
// The synthesizer owns the selection and ranking rules: which
// evidence-backed attributes qualify for each category and in what
// order. Narrative phrasing is delegated to a langchaingo llms.Model
// through a RAG-augmented prompt; if the model is unavailable the
// caller gets ErrGenerationUnavailable and can still use the scores.
package insights
