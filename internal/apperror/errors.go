// Package apperror holds the caller-correctable error taxonomy of the listing service.
// Every error carries a stable code, a human message and an optional detail such as
// the offending attribute key.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindListingNotFound
	KindListingNotActive
	KindOwnershipViolation
	KindInvalidStateTransition
	KindValidationFailed
	KindCategoryNotFound
	KindCategoryNotLeaf
	KindCategoryHasChildren
	KindCategoryHasListings
	KindAttributeNotFound
	KindUnknownAttributeKey
	KindInvalidAttributeValue
	KindMissingRequiredAttribute
	KindDuplicateAttributeKey
)

type spec struct {
	code    string
	message string
	status  int
}

var specs = map[Kind]spec{
	KindListingNotFound:          {"LISTING_001", "Listing not found", http.StatusNotFound},
	KindListingNotActive:         {"LISTING_002", "Listing is not active", http.StatusNotFound},
	KindOwnershipViolation:       {"LISTING_003", "You do not have permission to access this listing", http.StatusForbidden},
	KindInvalidStateTransition:   {"LISTING_004", "Invalid listing state for this operation", http.StatusConflict},
	KindValidationFailed:         {"LISTING_005", "Listing validation failed", http.StatusBadRequest},
	KindCategoryNotFound:         {"LISTING_010", "Category not found", http.StatusNotFound},
	KindCategoryNotLeaf:          {"LISTING_011", "Category must be a leaf category", http.StatusBadRequest},
	KindCategoryHasChildren:      {"LISTING_012", "Cannot delete category with children", http.StatusConflict},
	KindCategoryHasListings:      {"LISTING_013", "Cannot delete category with listings", http.StatusConflict},
	KindAttributeNotFound:        {"LISTING_020", "Attribute not found", http.StatusNotFound},
	KindUnknownAttributeKey:      {"LISTING_021", "Unknown attribute key", http.StatusBadRequest},
	KindInvalidAttributeValue:    {"LISTING_022", "Invalid attribute value", http.StatusBadRequest},
	KindMissingRequiredAttribute: {"LISTING_023", "Missing required attribute", http.StatusBadRequest},
	KindDuplicateAttributeKey:    {"LISTING_024", "Attribute key already defined on this category", http.StatusConflict},
}

const CodeInternal = "INTERNAL"

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind; detail and cause are ignored.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) HTTPStatus() int {
	if s, ok := specs[e.Kind]; ok {
		return s.status
	}
	return http.StatusInternalServerError
}

func New(kind Kind, detail string) *Error {
	s := specs[kind]
	return &Error{Kind: kind, Code: s.code, Message: s.message, Detail: detail}
}

func Wrap(kind Kind, detail string, err error) *Error {
	e := New(kind, detail)
	e.Err = err
	return e
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps any error to a response status; non-taxonomy errors are 500.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}
