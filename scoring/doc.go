// Package scoring maps extracted competitor facts onto the fixed
// two-axis coordinate system.
//
// An Engine is constructed with an attribute catalog and a rule table;
// nothing is package-global, so tests can run alternate catalogs. Each
// rule turns the record's facts into a raw 0-100 score, a confidence
// weight and the evidence that backs it. Attributes without matching
// evidence stay unscored (nil raw score), which is normal data rather
// than a failure. Axis scores are the confidence-weighted mean of the
// scored attributes on that axis.
package scoring
