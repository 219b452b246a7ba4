// Package group merges persisted chunks into retrieval documents.
//
// Chunks sharing identical grouping metadata (sprint, date, activity, header
// path) merge into one document whose text carries a metadata narrative ahead
// of the grouped content. The required-field policy is enforced at group
// level: a group missing a required field is dropped whole and its members
// counted as skipped, without failing the rest of the file.
package group
