package dataview

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// wrapExecutionError attaches the execution category/text code to a failure
// evaluating an already-parsed query.
func wrapExecutionError(queryType QueryType, cause error) error {
	return goerrors.Wrap(&ExecutionError{QueryType: queryType, Cause: cause}, CategoryExecutionError, "dataview: execute query").
		WithTextCode(textCodeExecutionError)
}

// Category constants follow the same package-scoped goerrors.Category
// pattern as internal/graph.CategorySelfLink.
const (
	CategoryLexError       goerrors.Category = "dataview_lex_error"
	CategoryParseError     goerrors.Category = "dataview_parse_error"
	CategoryExecutionError goerrors.Category = "dataview_execution_error"
)

const (
	textCodeLexError       = "DATAVIEW_LEX_ERROR"
	textCodeParseError     = "DATAVIEW_PARSE_ERROR"
	textCodeExecutionError = "DATAVIEW_EXECUTION_ERROR"
)

// ExecutionError wraps a failure evaluating an already-parsed query, keeping
// the query type it was running so callers can report it alongside the
// QueryResult that failed.
type ExecutionError struct {
	QueryType QueryType
	Cause     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("dataview: %s query execution failed: %v", e.QueryType, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}
