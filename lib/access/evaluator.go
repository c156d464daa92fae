package access

import (
	"approval-flow-backend/models"
	dbmodels "approval-flow-backend/models/db"
)

// Grant/deny reasons returned by CanView. These strings are part of the
// API surface; callers render them to users.
const (
	ReasonPrivilegedRole       = "privileged role"
	ReasonRequester            = "requester"
	ReasonNoDepartment         = "no department"
	ReasonDepartmentVisibility = "department visibility"
	ReasonNoVisibleStage       = "no visible stage for department"
)

// CanView decides read access to a request for a principal. Pure: it
// only inspects the request and the stage list the caller already
// fetched. Rules apply in order, first match wins:
//  1. privileged role: grant
//  2. original requester: grant
//  3. no department claim: deny
//  4. some stage's department allow-list names the principal's
//     department: grant, otherwise deny
//
// A stage with an empty allow-list is opted out of rule 4 entirely.
func CanView(rec dbmodels.Request, stages []dbmodels.ApprovalStage, principal models.Principal) (hasAccess bool, reason string) {
	if principal.Role.IsPrivileged() {
		return true, ReasonPrivilegedRole
	}
	if principal.ID != "" && principal.ID == rec.RequesterID {
		return true, ReasonRequester
	}
	if principal.Department == "" {
		return false, ReasonNoDepartment
	}
	for _, stage := range stages {
		if stage.VisibleToDepartment(principal.Department) {
			return true, ReasonDepartmentVisibility
		}
	}
	return false, ReasonNoVisibleStage
}
