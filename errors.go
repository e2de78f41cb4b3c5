package tagnorm

import "github.com/veldran/tagnorm/internal/types"

// InvalidInputError reports a path that is missing, not a local path, or
// not a regular file.
type InvalidInputError = types.InvalidInputError

// UnreadableFileError reports a file from which no audio properties and no
// tag of any dialect could be obtained.
type UnreadableFileError = types.UnreadableFileError
