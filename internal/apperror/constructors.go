package apperror

import (
	"fmt"
	"strconv"
)

func ListingNotFound(publicID string) *Error {
	return New(KindListingNotFound, publicID)
}

func ListingNotActive(publicID string) *Error {
	return New(KindListingNotActive, publicID)
}

func OwnershipViolation(publicID string) *Error {
	return New(KindOwnershipViolation, publicID)
}

// InvalidStateTransition names the attempted action and the state it was attempted from.
func InvalidStateTransition(action, current string) *Error {
	return New(KindInvalidStateTransition, fmt.Sprintf("cannot %s a listing in status %s", action, current))
}

func ValidationFailed(detail string) *Error {
	return New(KindValidationFailed, detail)
}

func CategoryNotFound(id int64) *Error {
	return New(KindCategoryNotFound, strconv.FormatInt(id, 10))
}

func CategoryNotLeaf(id int64) *Error {
	return New(KindCategoryNotLeaf, strconv.FormatInt(id, 10))
}

func CategoryHasChildren(id int64) *Error {
	return New(KindCategoryHasChildren, strconv.FormatInt(id, 10))
}

func CategoryHasListings(id int64) *Error {
	return New(KindCategoryHasListings, strconv.FormatInt(id, 10))
}

func AttributeNotFound(id int64) *Error {
	return New(KindAttributeNotFound, strconv.FormatInt(id, 10))
}

func UnknownAttributeKey(key string) *Error {
	return New(KindUnknownAttributeKey, key)
}

func InvalidAttributeValue(key string) *Error {
	return New(KindInvalidAttributeValue, key)
}

func MissingRequiredAttribute(key string) *Error {
	return New(KindMissingRequiredAttribute, key)
}

func DuplicateAttributeKey(key string) *Error {
	return New(KindDuplicateAttributeKey, key)
}
