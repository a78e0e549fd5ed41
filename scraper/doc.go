// Package scraper extracts structured competitor facts from a public
// website.
//
// The HTTPScraper fetches one page, sanitizes the markup and walks the
// document with goquery heuristics: service and integration lists come
// from sections whose headings mention them, explicit pricing from
// priced plan cards and currency patterns in the visible text. The
// output is a normalized CompetitorRecord ready for scoring; anything
// the heuristics cannot classify is simply absent, never guessed.
package scraper
