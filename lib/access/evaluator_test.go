package access

import (
	"testing"

	"github.com/stretchr/testify/require"

	"approval-flow-backend/models"
	dbmodels "approval-flow-backend/models/db"
)

func TestCanView(t *testing.T) {
	rec := dbmodels.Request{RequesterID: "user-1", Department: "IT"}
	stages := []dbmodels.ApprovalStage{
		{Name: "Manager Review", Departments: []string{"IT"}},
		{Name: "Finance Approval", Departments: []string{"Finance"}},
		{Name: "Executive Approval"},
	}

	t.Run(`privileged role wins first`, func(t *testing.T) {
		for _, role := range []models.UserRole{models.RoleAdmin, models.RoleCEO, models.RoleCOO, models.RoleCFO} {
			ok, reason := CanView(rec, stages, models.Principal{ID: "stranger", Role: role})
			require.True(t, ok)
			require.Equal(t, ReasonPrivilegedRole, reason)
		}
	})

	t.Run(`requester sees own request regardless of department`, func(t *testing.T) {
		ok, reason := CanView(rec, stages, models.Principal{ID: "user-1", Role: models.RoleEmployee})
		require.True(t, ok)
		require.Equal(t, ReasonRequester, reason)
	})

	t.Run(`no department claim denies`, func(t *testing.T) {
		ok, reason := CanView(rec, stages, models.Principal{ID: "user-2", Role: models.RoleEmployee})
		require.False(t, ok)
		require.Equal(t, ReasonNoDepartment, reason)
	})

	t.Run(`department named on a stage grants`, func(t *testing.T) {
		ok, reason := CanView(rec, stages, models.Principal{ID: "user-3", Role: models.RoleEmployee, Department: "Finance"})
		require.True(t, ok)
		require.Equal(t, ReasonDepartmentVisibility, reason)
	})

	t.Run(`department absent from every allow-list denies`, func(t *testing.T) {
		ok, reason := CanView(rec, stages, models.Principal{ID: "user-4", Role: models.RoleEmployee, Department: "HR"})
		require.False(t, ok)
		require.Equal(t, ReasonNoVisibleStage, reason)
	})

	t.Run(`empty allow-list stage is opted out`, func(t *testing.T) {
		bare := []dbmodels.ApprovalStage{{Name: "Executive Approval"}}
		ok, reason := CanView(rec, bare, models.Principal{ID: "user-5", Role: models.RoleEmployee, Department: "IT"})
		require.False(t, ok)
		require.Equal(t, ReasonNoVisibleStage, reason)
	})

	t.Run(`requester rule beats department rule in reason`, func(t *testing.T) {
		ok, reason := CanView(rec, stages, models.Principal{ID: "user-1", Role: models.RoleEmployee, Department: "IT"})
		require.True(t, ok)
		require.Equal(t, ReasonRequester, reason)
	})
}
