package models

type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusInProgress StageStatus = "in_progress"
	StageStatusCompleted  StageStatus = "completed"
	StageStatusRejected   StageStatus = "rejected"
	StageStatusSkipped    StageStatus = "skipped"
)

var stageStatusHumanName = map[StageStatus]string{
	StageStatusPending:    "Pending",
	StageStatusInProgress: "In progress",
	StageStatusCompleted:  "Completed",
	StageStatusRejected:   "Rejected",
	StageStatusSkipped:    "Skipped",
}

func (s StageStatus) ToHuman() string {
	if human, exist := stageStatusHumanName[s]; exist {
		return human
	}
	return string(s)
}

func (s StageStatus) IsTerminal() bool {
	switch s {
	case StageStatusCompleted, StageStatusRejected, StageStatusSkipped:
		return true
	}
	return false
}

// StageKind tags what a stage asks of its approver.
type StageKind string

const (
	StageKindApproval StageKind = "approval"
	StageKindReview   StageKind = "review"
)

// StageAuthRule is the tagged authorization rule of one stage:
// a single required role, a one-of alternation, or any authenticated
// approver. One evaluator serves both Approve and Reject.
type StageAuthRule struct {
	RequiredRole UserRole   // empty means no single-role requirement
	OneOf        []UserRole // alternation, e.g. CEO or COO
}

// Allows reports whether the role satisfies the rule. Administrators
// may always act.
func (r StageAuthRule) Allows(role UserRole) bool {
	if role.IsAdmin() {
		return true
	}
	if r.RequiredRole != "" && role == r.RequiredRole {
		return true
	}
	for _, alt := range r.OneOf {
		if role == alt {
			return true
		}
	}
	// no constraints at all: any authenticated approver may act
	return r.RequiredRole == "" && len(r.OneOf) == 0
}

type ActionKind string

const (
	ActionApproved  ActionKind = "approved"
	ActionRejected  ActionKind = "rejected"
	ActionCommented ActionKind = "commented"
)
