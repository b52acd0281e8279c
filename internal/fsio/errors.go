package fsio

import goerrors "github.com/goliatone/go-errors"

// Categories follow the teacher's go-repository-bun idiom of declaring
// package-scoped goerrors.Category constants (e.g.
// repository.CategoryDatabaseNotFound) rather than ad hoc category strings.
const (
	CategoryFileError  goerrors.Category = "file_error"
	CategoryDirtyFile  goerrors.Category = "dirty_file_error"
	CategoryFileNotFound goerrors.Category = "file_not_found"
)

const (
	textCodeFileError  = "FILE_ERROR"
	textCodeDirtyFile  = "DIRTY_FILE_ERROR"
	textCodeFileNotFound = "FILE_NOT_FOUND"
)
