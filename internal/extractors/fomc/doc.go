// Package fomc extracts Federal Open Market Committee communications:
// post-meeting statements, meeting minutes and press conference transcripts.
package fomc
