package types

import "errors"

// Sentinel errors for common error conditions.
var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProviderNotAvailable is returned when a provider is not available.
	ErrProviderNotAvailable = errors.New("provider not available")

	// ErrParseError is returned when parsing fails.
	ErrParseError = errors.New("parse error")

	// ErrEmptyGroup is returned when a node group is constructed from an
	// empty sequence. This is a programming error, not a runtime condition.
	ErrEmptyGroup = errors.New("node group must contain at least one node")

	// ErrBadGroupRule is returned when a grouping rule drops, duplicates or
	// reorders sibling nodes instead of only fusing adjacent runs.
	ErrBadGroupRule = errors.New("grouping rule violated its contract")

	// ErrEmbeddingFailed is returned when embedding generation fails.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrStoreFailed is returned when a store operation fails.
	ErrStoreFailed = errors.New("store operation failed")
)
