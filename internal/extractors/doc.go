// Package extractors maps document types to the extractors that turn
// preserved HTML into structured records.
//
// Concrete extractors live in sub-packages:
//
//   - fomc: statements, minutes and press conference transcripts
//   - speech: speeches and congressional testimony
//   - report: reports and other titled publications
//
// RegisterDefaults wires all of them into a Registry.
package extractors
