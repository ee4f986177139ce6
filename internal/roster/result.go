package roster

import "github.com/aanand-mishra/roster-api/internal/types"

// Status tells a caller why a Result does or does not carry a record.
type Status uint8

const (
	// StatusAbsent: the target record does not exist. The zero value, so
	// an unset Result never reads as success.
	StatusAbsent Status = iota
	// StatusOK: Student holds the stored record.
	StatusOK
	// StatusRefused: a business rule turned the request down.
	StatusRefused
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRefused:
		return "refused"
	default:
		return "absent"
	}
}

// Result is the outcome of an operation whose "no record" answer is a
// normal outcome rather than an error.
type Result struct {
	Student types.Student
	Status  Status
}

// OK reports whether Student is populated.
func (r Result) OK() bool {
	return r.Status == StatusOK
}
