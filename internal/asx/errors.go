package asx

import "fmt"

// FetchError reports that a listing page could not be retrieved or did not
// contain the announcement table. It is fatal for that listing only.
type FetchError struct {
	Endpoint Endpoint
	URL      string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s listing (%s): %v", e.Endpoint, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a malformed listing row. Callers skip the row.
type ParseError struct {
	Cell string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s cell: %v", e.Cell, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
