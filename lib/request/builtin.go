package requesthandler

import (
	"approval-flow-backend/models"
	dbmodels "approval-flow-backend/models/db"

	"github.com/lib/pq"
)

// builtinStages assembles the default routing sequence for a built-in
// request type. Threshold comparisons are inclusive; a nil estimate
// means the baseline sequence only.
func builtinStages(reqType models.RequestType, estimate *float64, financeThreshold, executiveThreshold float64) []dbmodels.ApprovalStage {
	switch reqType {
	case models.RequestTypeMAF:
		stages := []dbmodels.ApprovalStage{
			{
				Name:         "Manager Review",
				Kind:         models.StageKindReview,
				RequiredRole: models.RoleManager,
			},
			{
				Name:         "Department Head Approval",
				Kind:         models.StageKindApproval,
				RequiredRole: models.RoleDepartmentHead,
			},
		}
		if estimate != nil && *estimate >= financeThreshold {
			stages = append(stages, dbmodels.ApprovalStage{
				Name:         "Finance Approval",
				Kind:         models.StageKindApproval,
				RequiredRole: models.RoleFinance,
				Threshold:    &financeThreshold,
			})
		}
		if estimate != nil && *estimate >= executiveThreshold {
			stages = append(stages, dbmodels.ApprovalStage{
				Name:      "Executive Approval",
				Kind:      models.StageKindApproval,
				OneOfRoles: pq.StringArray{
					string(models.RoleCEO),
					string(models.RoleCOO),
				},
				Threshold: &executiveThreshold,
			})
		}
		return stages
	case models.RequestTypePR:
		return []dbmodels.ApprovalStage{
			{
				Name:         "Procurement Review",
				Kind:         models.StageKindReview,
				RequiredRole: models.RoleManager,
			},
			{
				Name:         "Finance Approval",
				Kind:         models.StageKindApproval,
				RequiredRole: models.RoleFinance,
			},
		}
	}
	return nil
}
