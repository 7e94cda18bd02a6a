// Package recipe defines the recipe data model shared by the search engine,
// the coordinator and the presenters, together with the Index port the
// engine queries.
//
// An Index is a third-party recipe catalogue that can only filter by one
// ingredient at a time. Its filter results are coarse and may contain false
// positives, so callers that combine several terms re-check full records.
package recipe
