// Package report renders an analysis result for humans: a styled
// terminal summary and an optional HTML report built from markdown.
package report
