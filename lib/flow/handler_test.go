package flow

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	attachmentstore "approval-flow-backend/lib/attachment/store"
	stagestore "approval-flow-backend/lib/flow/store"
	ledgerstore "approval-flow-backend/lib/ledger/store"
	requeststore "approval-flow-backend/lib/request/store"
	"approval-flow-backend/models"
	dbmodels "approval-flow-backend/models/db"
)

var (
	requester = models.Principal{ID: "user-req", Role: models.RoleEmployee, Department: "IT", Name: "Requester", Email: "req@example.com"}
	manager   = models.Principal{ID: "user-mgr", Role: models.RoleManager, Department: "IT", Name: "Manager"}
	deptHead  = models.Principal{ID: "user-head", Role: models.RoleDepartmentHead, Department: "IT", Name: "Head"}
	ceo       = models.Principal{ID: "user-ceo", Role: models.RoleCEO, Name: "CEO"}
	admin     = models.Principal{ID: "user-adm", Role: models.RoleAdmin, Name: "Admin"}
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(
		&dbmodels.Request{},
		&dbmodels.ApprovalStage{},
		&dbmodels.ApprovalAction{},
		&dbmodels.AuditEntry{},
		&dbmodels.FileAttachment{},
	))
	return gdb
}

// seedRequest creates a draft with a manager review, a department head
// approval and an executive one-of stage, all pending.
func seedRequest(t *testing.T, gdb *gorm.DB) (requestID string, stageIDs []string) {
	t.Helper()
	requestID, err := requeststore.NewInstance(gdb).Create(dbmodels.Request{
		SeqNumber:      "REQ-MAF-260315-001",
		Type:           models.RequestTypeMAF,
		Title:          "New laptops",
		RequesterID:    requester.ID,
		Requester:      requester.Name,
		RequesterEmail: requester.Email,
		Department:     "IT",
		Status:         models.RequestStatusDraft,
	})
	require.NoError(t, err)
	stages := []dbmodels.ApprovalStage{
		{Name: "Manager Review", Kind: models.StageKindReview, RequiredRole: models.RoleManager},
		{Name: "Department Head Approval", Kind: models.StageKindApproval, RequiredRole: models.RoleDepartmentHead},
		{Name: "Executive Approval", Kind: models.StageKindApproval, OneOfRoles: []string{string(models.RoleCEO), string(models.RoleCOO)}},
	}
	stgStore := stagestore.NewInstance(gdb)
	for idx := range stages {
		stages[idx].RequestID = requestID
		stages[idx].OrderIdx = idx
		stages[idx].Status = models.StageStatusPending
		stages[idx].Departments = []string{"IT"}
		id, err := stgStore.Create(stages[idx])
		require.NoError(t, err)
		stageIDs = append(stageIDs, id)
	}
	return requestID, stageIDs
}

func attachFile(t *testing.T, gdb *gorm.DB, requestID, stageID string, actor models.Principal) {
	t.Helper()
	_, err := attachmentstore.NewInstance(gdb).Create(dbmodels.FileAttachment{
		RequestID:   requestID,
		StageID:     stageID,
		ActorID:     actor.ID,
		Name:        "signed.pdf",
		ContentType: "application/pdf",
		ObjectKey:   "test/signed.pdf",
		Size:        128,
	})
	require.NoError(t, err)
}

func getRequest(t *testing.T, gdb *gorm.DB, id string) *dbmodels.Request {
	t.Helper()
	rec, err := requeststore.NewInstance(gdb).GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func getStage(t *testing.T, gdb *gorm.DB, id string) *dbmodels.ApprovalStage {
	t.Helper()
	rec, err := stagestore.NewInstance(gdb).GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func TestSubmit(t *testing.T) {
	t.Run(`submit activates the first stage`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)

		require.NoError(t, provider.Submit(requestID, requester))

		rec := getRequest(t, gdb, requestID)
		require.Equal(t, models.RequestStatusInProgress, rec.Status)
		require.NotNil(t, rec.SubmittedAt)
		require.Equal(t, models.StageStatusInProgress, getStage(t, gdb, stageIDs[0]).Status)
		require.Equal(t, models.StageStatusPending, getStage(t, gdb, stageIDs[1]).Status)
	})

	t.Run(`only the requester or an admin may submit`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, _ := seedRequest(t, gdb)

		err := provider.Submit(requestID, manager)
		require.True(t, models.IsKind(err, models.KindUnauthorized))

		require.NoError(t, provider.Submit(requestID, admin))
	})

	t.Run(`double submit is rejected`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, _ := seedRequest(t, gdb)

		require.NoError(t, provider.Submit(requestID, requester))
		err := provider.Submit(requestID, requester)
		require.True(t, models.IsKind(err, models.KindInvalidState))
	})

	t.Run(`unknown request`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		err := provider.Submit("missing", requester)
		require.True(t, models.IsKind(err, models.KindNotFound))
	})
}

func TestApprove(t *testing.T) {
	t.Run(`approval chain runs to completion`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		attachFile(t, gdb, requestID, stageIDs[0], manager)
		require.NoError(t, provider.Approve(stageIDs[0], manager, "looks fine"))
		require.Equal(t, models.StageStatusCompleted, getStage(t, gdb, stageIDs[0]).Status)
		require.Equal(t, models.StageStatusInProgress, getStage(t, gdb, stageIDs[1]).Status)

		attachFile(t, gdb, requestID, stageIDs[1], deptHead)
		require.NoError(t, provider.Approve(stageIDs[1], deptHead, ""))

		// CEO is signature exempt, no upload needed
		require.NoError(t, provider.Approve(stageIDs[2], ceo, "approved"))

		rec := getRequest(t, gdb, requestID)
		require.Equal(t, models.RequestStatusCompleted, rec.Status)
		require.NotNil(t, rec.CompletedAt)

		actions, err := ledgerstore.NewInstance(gdb).ListByRequest(requestID)
		require.NoError(t, err)
		require.Len(t, actions, 3)
		for _, action := range actions {
			require.Equal(t, models.ActionApproved, action.Action)
		}
	})

	t.Run(`upload required before approval`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		err := provider.Approve(stageIDs[0], manager, "")
		require.True(t, models.IsKind(err, models.KindPreconditionFailed))
		require.Equal(t, models.StageStatusInProgress, getStage(t, gdb, stageIDs[0]).Status)
	})

	t.Run(`admin is not signature exempt`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		err := provider.Approve(stageIDs[0], admin, "")
		require.True(t, models.IsKind(err, models.KindPreconditionFailed))
	})

	t.Run(`wrong role is rejected`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		err := provider.Approve(stageIDs[0], deptHead, "")
		require.True(t, models.IsKind(err, models.KindUnauthorized))
	})

	t.Run(`stage not in progress`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		// second stage has not been reached yet
		attachFile(t, gdb, requestID, stageIDs[1], deptHead)
		err := provider.Approve(stageIDs[1], deptHead, "")
		require.True(t, models.IsKind(err, models.KindInvalidState))
	})

	t.Run(`double approve loses the second time`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		attachFile(t, gdb, requestID, stageIDs[0], manager)
		require.NoError(t, provider.Approve(stageIDs[0], manager, ""))
		err := provider.Approve(stageIDs[0], manager, "")
		require.True(t, models.IsKind(err, models.KindInvalidState))

		actions, err := ledgerstore.NewInstance(gdb).ListByStage(stageIDs[0])
		require.NoError(t, err)
		require.Len(t, actions, 1)
	})
}

func TestReject(t *testing.T) {
	t.Run(`reject short-circuits the request`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		require.NoError(t, provider.Reject(stageIDs[0], manager, "budget exceeded"))

		rec := getRequest(t, gdb, requestID)
		require.Equal(t, models.RequestStatusRejected, rec.Status)
		require.Equal(t, models.StageStatusRejected, getStage(t, gdb, stageIDs[0]).Status)
		// never-reached stages stay pending
		require.Equal(t, models.StageStatusPending, getStage(t, gdb, stageIDs[1]).Status)
		require.Equal(t, models.StageStatusPending, getStage(t, gdb, stageIDs[2]).Status)
	})

	t.Run(`reject requires a comment`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		err := provider.Reject(stageIDs[0], manager, "")
		require.True(t, models.IsKind(err, models.KindPreconditionFailed))
	})

	t.Run(`no stage action after rejection`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))
		require.NoError(t, provider.Reject(stageIDs[0], manager, "no"))

		attachFile(t, gdb, requestID, stageIDs[1], deptHead)
		err := provider.Approve(stageIDs[1], deptHead, "")
		require.True(t, models.IsKind(err, models.KindInvalidState))
	})
}

func TestComment(t *testing.T) {
	t.Run(`comment appends without state change`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		require.NoError(t, provider.Comment(stageIDs[0], manager, "please add quotes"))
		require.NoError(t, provider.Comment(stageIDs[0], manager, "second thought"))

		require.Equal(t, models.StageStatusInProgress, getStage(t, gdb, stageIDs[0]).Status)
		actions, err := ledgerstore.NewInstance(gdb).ListByStage(stageIDs[0])
		require.NoError(t, err)
		require.Len(t, actions, 2)
		for _, action := range actions {
			require.Equal(t, models.ActionCommented, action.Action)
		}
	})
}

func TestDiscontinue(t *testing.T) {
	t.Run(`discontinue a live request`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, _ := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		require.NoError(t, provider.Discontinue(requestID, requester, "no longer needed"))

		rec := getRequest(t, gdb, requestID)
		require.Equal(t, models.RequestStatusDiscontinued, rec.Status)
		require.Equal(t, "no longer needed", rec.Meta.DiscontinueReason)
		require.NotNil(t, rec.CompletedAt)
	})

	t.Run(`rejected request may still be discontinued`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))
		require.NoError(t, provider.Reject(stageIDs[0], manager, "no"))

		require.NoError(t, provider.Discontinue(requestID, requester, "dropping it"))
		require.Equal(t, models.RequestStatusDiscontinued, getRequest(t, gdb, requestID).Status)
	})

	t.Run(`completed request can not be discontinued`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))
		attachFile(t, gdb, requestID, stageIDs[0], manager)
		require.NoError(t, provider.Approve(stageIDs[0], manager, ""))
		attachFile(t, gdb, requestID, stageIDs[1], deptHead)
		require.NoError(t, provider.Approve(stageIDs[1], deptHead, ""))
		require.NoError(t, provider.Approve(stageIDs[2], ceo, ""))

		err := provider.Discontinue(requestID, requester, "too late")
		require.True(t, models.IsKind(err, models.KindInvalidState))
	})

	t.Run(`only the requester or an admin`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, _ := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		err := provider.Discontinue(requestID, manager, "not mine")
		require.True(t, models.IsKind(err, models.KindUnauthorized))
	})
}

func TestCancel(t *testing.T) {
	t.Run(`cancel a draft`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, _ := seedRequest(t, gdb)

		require.NoError(t, provider.Cancel(requestID, requester))
		require.Equal(t, models.RequestStatusCancelled, getRequest(t, gdb, requestID).Status)
	})

	t.Run(`submitted request can not be cancelled`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, _ := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		err := provider.Cancel(requestID, requester)
		require.True(t, models.IsKind(err, models.KindInvalidState))
	})
}

func TestArchive(t *testing.T) {
	t.Run(`admin archives from any state`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, _ := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))

		require.NoError(t, provider.Archive(requestID, admin))

		rec := getRequest(t, gdb, requestID)
		require.Equal(t, models.RequestStatusArchived, rec.Status)
		require.NotNil(t, rec.Meta.ArchivedAt)
	})

	t.Run(`archive is admin-only`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, _ := seedRequest(t, gdb)

		err := provider.Archive(requestID, requester)
		require.True(t, models.IsKind(err, models.KindUnauthorized))
	})

	t.Run(`no stage action after archive`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)
		require.NoError(t, provider.Submit(requestID, requester))
		require.NoError(t, provider.Archive(requestID, admin))

		attachFile(t, gdb, requestID, stageIDs[0], manager)
		err := provider.Approve(stageIDs[0], manager, "")
		require.True(t, models.IsKind(err, models.KindInvalidState))
	})
}

func TestAuditTrail(t *testing.T) {
	t.Run(`each command leaves one audit entry`, func(t *testing.T) {
		gdb := testDB(t)
		provider := NewHandlerWithDB(gdb)
		requestID, stageIDs := seedRequest(t, gdb)

		require.NoError(t, provider.Submit(requestID, requester))
		attachFile(t, gdb, requestID, stageIDs[0], manager)
		require.NoError(t, provider.Approve(stageIDs[0], manager, ""))

		var count int64
		require.NoError(t, gdb.Model(&dbmodels.AuditEntry{}).Count(&count).Error)
		require.Equal(t, int64(2), count)
	})
}
