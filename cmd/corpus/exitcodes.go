package main

// Exit codes used across all commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Not in a workspace / config problem / index not found
	ExitDataError   = 3 // Data error (malformed input, validation failure)
	ExitBackendDown = 4 // Embedding or reranking backend unavailable
	ExitIndexStale  = 5 // Vector index out of date with the store
)
