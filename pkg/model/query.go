package model

// Query describes one page request against a feed source.
type Query struct {
	Limit   int
	Offset  int
	Filters FilterState
}
