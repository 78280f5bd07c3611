package pipeline

import "errors"

var (
	// ErrFeedURLRequired is returned when no feed URL is configured.
	ErrFeedURLRequired = errors.New("feed URL is required")

	// ErrFeedFetch wraps any failure to download the feed.
	ErrFeedFetch = errors.New("failed to fetch feed")
)
