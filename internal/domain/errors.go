package domain

import "errors"

// Failure categories surfaced on the synchronous path. Callers classify
// with errors.Is; background indexing failures are never returned as
// errors, they are recorded on the job tracker instead.
var (
	// ErrValidation marks bad input shape (empty document, unsupported
	// file type, oversized upload). Rejected before a job exists.
	ErrValidation = errors.New("invalid input")

	// ErrRateLimited marks admission-control rejection, either by the
	// request rate limiter or by indexing queue overflow. Retryable.
	ErrRateLimited = errors.New("too many requests")

	// ErrRetrieval marks a vector store query failure while answering.
	ErrRetrieval = errors.New("index query failed")

	// ErrLLM marks a language-model backend failure: unreachable, timed
	// out after retries, or an HTTP error response.
	ErrLLM = errors.New("llm request failed")
)
