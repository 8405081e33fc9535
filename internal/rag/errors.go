// Package rag implements retrieval-augmented answering over Lao statutory text:
// segmentation into articles, chunking, the embedding index, retrieval,
// grounded prompt construction, answer synthesis and citation tracking.
package rag

import "errors"

var (
	// ErrInvalidInput is returned for an empty question or malformed request data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration covers missing credentials, bad chunking parameters and
	// unusable storage paths. Never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrIngestion marks a source file that could not be read; the file is skipped.
	ErrIngestion = errors.New("ingestion error")

	// ErrIndexBuild aborts an index build. The previous index stays in place.
	ErrIndexBuild = errors.New("index build failed")

	// ErrRetrieval is returned when the query could not be embedded or searched.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration is returned when the generation backend failed or timed out.
	ErrGeneration = errors.New("generation failed")

	ErrBuildInProgress = errors.New("index build already in progress")
)
