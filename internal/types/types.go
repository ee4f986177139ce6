// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and the roster service can all import types without
// depending on each other.
package types

import "time"

// Student represents a student record in the roster.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  — controls how the field appears when encoded to JSON
//     (camelCase names match the REST API).
//
//  2. validate:"..." — rules checked by the go-playground/validator
//     package. Only the request types below carry them: a full record is
//     stored as submitted.
type Student struct {
	// ID is assigned by the store on first save and never changes.
	ID     string `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`

	// CreatedAt is nil for records that arrived through the full-record path.
	CreatedAt *time.Time `json:"createdAt,omitempty"`

	// UpdateHistory gets one entry per governed update, oldest first.
	UpdateHistory []time.Time `json:"updateHistory"`
}

// Equal reports whether two records share the same identity.
// Field values are irrelevant: a record is its id.
func (s Student) Equal(other Student) bool {
	return s.ID == other.ID
}

// CreateRequest is the governed creation payload.
type CreateRequest struct {
	Name   string `json:"name"   validate:"required"`
	Age    int    `json:"age"    validate:"gte=0"`
	Gender string `json:"gender"`
}

// UpdateRequest is the governed update payload. The record it targets is
// replaced wholesale with these fields.
type UpdateRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}
