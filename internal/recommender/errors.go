package recommender

import (
	"errors"
	"fmt"
)

// ErrEmptyRequest is returned when neither job text nor a job URL was supplied.
var ErrEmptyRequest = errors.New("either text or url must be provided")

// UpstreamError wraps a failure of a remote dependency: the AI service or the page
// fetcher resolving a job URL.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ParseError means the AI response could not be turned into recommendations.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse recommendations: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
