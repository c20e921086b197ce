package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a document type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrAlreadyIngested indicates a document is already marked SUCCESS.
	ErrAlreadyIngested = errors.New("document already ingested")

	// ErrIngestInProgress indicates the document is being ingested by another request.
	ErrIngestInProgress = errors.New("ingest in progress")

	// Configuration Errors.
	// These are fatal and must not be retried.

	// ErrConfiguration indicates the deployment is misconfigured.
	ErrConfiguration = errors.New("configuration error")

	// ErrDimensionMismatch indicates an embedding does not match the
	// dimensionality fixed for its namespace.
	ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", ErrConfiguration)

	// ErrNamespaceNotFound indicates a tenant namespace has never been created.
	ErrNamespaceNotFound = fmt.Errorf("%w: namespace not found", ErrConfiguration)

	// Availability Errors.

	// ErrTransient marks a failure the caller may retry (network, timeouts).
	ErrTransient = errors.New("transient failure")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Summarisation and answer generation are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Neither indexing nor retrieval can run without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index cannot be reached.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrContentStoreUnavailable indicates the content store cannot be reached.
	ErrContentStoreUnavailable = errors.New("content store unavailable")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Connector Errors.

	// ErrConnectorClosed indicates a connector was used after Close.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrAuthInvalid indicates source credentials were rejected.
	ErrAuthInvalid = fmt.Errorf("%w: source credentials rejected", ErrConfiguration)
)

// PutError reports a content store write that failed for some records.
// Records not listed in FailedIDs were committed.
type PutError struct {
	FailedIDs []string
	Err       error
}

func (e *PutError) Error() string {
	return fmt.Sprintf("put %d record(s) failed [%s]: %v",
		len(e.FailedIDs), strings.Join(e.FailedIDs, ", "), e.Err)
}

func (e *PutError) Unwrap() error {
	return e.Err
}

// Failed returns the set of IDs that were not written.
func (e *PutError) Failed() map[string]bool {
	failed := make(map[string]bool, len(e.FailedIDs))
	for _, id := range e.FailedIDs {
		failed[id] = true
	}
	return failed
}

// Transient wraps err so that IsRetryable reports true.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsRetryable reports whether err is worth retrying.
// Configuration errors never are, even when wrapped together with a transient one.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrConfiguration) {
		return false
	}
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}
