package document

import "fmt"

// Status is the lifecycle state of a document.
type Status string

const (
	StatusRequested      Status = "requested"
	StatusInLawyerReview Status = "in_lawyer_review"
	StatusInClientReview Status = "in_client_review"
	StatusPaid           Status = "paid"
	StatusDownloaded     Status = "downloaded"
)

// allowedTransitions defines the valid status transitions. The key is the
// current status, the value the set of statuses reachable from it.
// requested -> paid is the free-document fast path and is only taken when
// price == 0.
var allowedTransitions = map[Status][]Status{
	StatusRequested:      {StatusInLawyerReview, StatusPaid},
	StatusInLawyerReview: {StatusInClientReview},
	StatusInClientReview: {StatusInLawyerReview, StatusPaid},
	StatusPaid:           {StatusDownloaded},
	StatusDownloaded:     {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	allowed, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError is returned when a status change is not in the
// transition table.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %q -> %q", e.From, e.To)
}

// ValidateTransition returns an InvalidTransitionError if the transition is
// not allowed. Every status write performed by this service goes through
// this check.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
