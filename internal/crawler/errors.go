package crawler

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies why a product could not be scraped.
type ErrorKind string

const (
	KindFetch          ErrorKind = "fetch"
	KindStatus         ErrorKind = "status"
	KindParse          ErrorKind = "parse"
	KindMissingElement ErrorKind = "missing_element"
	KindWrite          ErrorKind = "write"
	KindCanceled       ErrorKind = "canceled"
	KindUnknown        ErrorKind = "unknown"
)

// FetchError represents a transport failure while requesting a page
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError represents a non-success HTTP response
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %s", e.URL, e.Status)
}

// ParseError represents a body that could not be read or parsed as HTML
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingElementError is returned in strict mode when a required element is absent
type MissingElementError struct {
	URL      string
	Selector string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("parse %s: missing element %q", e.URL, e.Selector)
}

// WriteError represents a sink failing to persist a record
type WriteError struct {
	URL string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.URL, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Classify maps an error returned by the scraper to its kind.
func Classify(err error) ErrorKind {
	var (
		fetchErr   *FetchError
		statusErr  *StatusError
		parseErr   *ParseError
		missingErr *MissingElementError
		writeErr   *WriteError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded) && !errors.As(err, &fetchErr):
		return KindCanceled
	case errors.As(err, &statusErr):
		return KindStatus
	case errors.As(err, &fetchErr):
		return KindFetch
	case errors.As(err, &missingErr):
		return KindMissingElement
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &writeErr):
		return KindWrite
	default:
		return KindUnknown
	}
}
