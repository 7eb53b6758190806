package queue

import "errors"

var (
	ErrTargetExists = errors.New("target already queued")
	ErrNotQueued    = errors.New("item not queued")
	ErrSourceExists = errors.New("user already a source")
	// ErrInconsistent is wrapped by panics raised when the registry's
	// indices or size total disagree with each other.
	ErrInconsistent = errors.New("file queue inconsistent")
)
