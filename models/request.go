package models

import "github.com/pkg/errors"

// RequestType tags a request with the approval flow family it belongs
// to. Built-in types carry default stage rules; template-backed
// requests may use any tag.
type RequestType string

const (
	RequestTypeMAF RequestType = "MAF" // management approval form
	RequestTypePR  RequestType = "PR"  // purchase request
)

var requestTypeHumanName = map[RequestType]string{
	RequestTypeMAF: "Management approval form",
	RequestTypePR:  "Purchase request",
}

func (t RequestType) ToHuman() string {
	if human, exist := requestTypeHumanName[t]; exist {
		return human
	}
	return string(t)
}

// Validate accepts any non-empty tag: template-backed requests may use
// custom types, only the built-in routing rules are limited to the
// known ones.
func (t RequestType) Validate() error {
	if t == "" {
		return errors.New("request type is required")
	}
	return nil
}

// IsBuiltin reports whether default stage rules exist for the type.
func (t RequestType) IsBuiltin() bool {
	switch t {
	case RequestTypeMAF, RequestTypePR:
		return true
	}
	return false
}

type RequestStatus string

const (
	RequestStatusDraft        RequestStatus = "draft"
	RequestStatusInProgress   RequestStatus = "in_progress"
	RequestStatusCompleted    RequestStatus = "completed"
	RequestStatusRejected     RequestStatus = "rejected"
	RequestStatusDiscontinued RequestStatus = "discontinued"
	RequestStatusCancelled    RequestStatus = "cancelled"
	RequestStatusArchived     RequestStatus = "archived"
)

var requestStatusHumanName = map[RequestStatus]string{
	RequestStatusDraft:        "Draft",
	RequestStatusInProgress:   "In progress",
	RequestStatusCompleted:    "Completed",
	RequestStatusRejected:     "Rejected",
	RequestStatusDiscontinued: "Discontinued",
	RequestStatusCancelled:    "Cancelled",
	RequestStatusArchived:     "Archived",
}

func (s RequestStatus) ToHuman() string {
	if human, exist := requestStatusHumanName[s]; exist {
		return human
	}
	return string(s)
}

// IsTerminal reports whether no further stage mutation is permitted.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusCompleted, RequestStatusRejected,
		RequestStatusDiscontinued, RequestStatusCancelled, RequestStatusArchived:
		return true
	}
	return false
}

func (s RequestStatus) AllowSubmit() bool {
	return s == RequestStatusDraft
}

func (s RequestStatus) AllowCancel() bool {
	return s == RequestStatusDraft
}

// AllowDiscontinue holds for every non-terminal status.
func (s RequestStatus) AllowDiscontinue() bool {
	return !s.IsTerminal()
}

// AllowStageAction holds while the routing sequence is live.
func (s RequestStatus) AllowStageAction() bool {
	return s == RequestStatusInProgress
}
