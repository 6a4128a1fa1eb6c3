package domain

import "errors"

// Request and response bodies of the board REST API. Field names follow the
// browser client the API was first written for.

// CreateColumnRequest is the body of POST /columns.
type CreateColumnRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// RenameColumnRequest is the body of PUT /columns/:id.
type RenameColumnRequest struct {
	Title string `json:"title"`
}

// ReorderColumnsRequest is the body of PUT /columns/reorder.
type ReorderColumnsRequest struct {
	Columns []Column `json:"columns"`
}

// UpdateTaskRequest is the body of PUT /tasks/:id.
type UpdateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MoveTaskRequest is the body of PUT /tasks/move.
type MoveTaskRequest struct {
	TaskID      string `json:"taskId"`
	NewColumnID string `json:"newColumnId"`
}

// ReorderTasksRequest is the body of PUT /tasks/reorder.
type ReorderTasksRequest struct {
	Tasks []Task `json:"tasks"`
}

// SuccessResponse is returned by mutations without an entity payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// errorCodes maps sentinel errors to their wire codes.
var errorCodes = []struct {
	err  error
	code string
}{
	{ErrTaskNotFound, "task_not_found"},
	{ErrColumnNotFound, "column_not_found"},
	{ErrEmptyTitle, "empty_title"},
	{ErrTitleTooLong, "title_too_long"},
	{ErrDuplicateID, "duplicate_id"},
	{ErrEmptyID, "empty_id"},
	{ErrNotPermutation, "not_permutation"},
	{ErrIndexOutOfRange, "index_out_of_range"},
	{ErrNotInitialized, "not_initialized"},
}

// ErrorCode returns the wire code of err, or "" for unclassified errors.
func ErrorCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ""
}

// ErrorForCode returns the sentinel error for a wire code, or nil.
func ErrorForCode(code string) error {
	for _, e := range errorCodes {
		if e.code == code {
			return e.err
		}
	}
	return nil
}
