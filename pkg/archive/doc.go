// Package archive discovers and extracts downloaded zip archives.
//
// Discovery is explicit. Competitions produce a single archive named after the
// competition (Named), datasets may produce several (Glob). Both return names
// relative to the destination in sorted order.
//
// Extraction is all-or-nothing per archive: entries are decoded into a staging
// directory inside the destination and moved into place only after every entry
// succeeded. A corrupt archive therefore leaves the destination untouched. The
// archive itself is never removed. Entries whose names escape the destination
// are rejected.
package archive
