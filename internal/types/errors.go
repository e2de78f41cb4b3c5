package types

import "fmt"

// InvalidInputError is returned when the path is missing, not a local path,
// or not a regular file.
type InvalidInputError struct {
	Path   string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Path, e.Reason)
}

// UnreadableFileError is returned when no generic tag or audio properties
// could be obtained at all: the container is totally unreadable or empty.
type UnreadableFileError struct {
	Path   string
	Reason string
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("%s: unreadable file: %s", e.Path, e.Reason)
}
