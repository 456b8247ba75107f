package linkedin

import "fmt"

// SessionError indicates the saved browser session could not be loaded
// or is no longer accepted by LinkedIn.
type SessionError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("linkedin session (%s): %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("linkedin session (%s): %s", e.Path, e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// SearchError indicates a people-search request failed at the browser
// or parsing layer.
type SearchError struct {
	Query string
	Cause error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("linkedin search %q failed: %v", e.Query, e.Cause)
}

func (e *SearchError) Unwrap() error {
	return e.Cause
}
