package requesthandler

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	xlsexport "approval-flow-backend/lib/export/xls"
	"approval-flow-backend/lib/sequence"
	templatestore "approval-flow-backend/lib/template/store"
	"approval-flow-backend/models"
	requestapimodels "approval-flow-backend/models/api/request"
	dbmodels "approval-flow-backend/models/db"
)

var (
	requester = models.Principal{ID: "user-req", Role: models.RoleEmployee, Department: "IT", Name: "Requester", Email: "req@example.com"}
	outsider  = models.Principal{ID: "user-out", Role: models.RoleEmployee, Department: "HR", Name: "Outsider"}
	cfo       = models.Principal{ID: "user-cfo", Role: models.RoleCFO, Name: "CFO"}
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
		&dbmodels.SequenceCounter{},
		&dbmodels.StageTemplate{},
		&dbmodels.TemplateStage{},
		&dbmodels.FileAttachment{},
	))
	return gdb
}

func testProvider(t *testing.T) (Provider, *gorm.DB) {
	t.Helper()
	gdb := testDB(t)
	return NewHandlerWithDB(gdb, sequence.NewHandlerWithDB(gdb, "REQ"), 10000, 100000), gdb
}

func estimate(v float64) *float64 {
	return &v
}

func TestCreateBuiltin(t *testing.T) {
	t.Run(`small maf gets the baseline sequence`, func(t *testing.T) {
		provider, _ := testProvider(t)
		id, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type:       models.RequestTypeMAF,
			Title:      "Team offsite",
			Department: "IT",
			Estimate:   estimate(500),
		})
		require.NoError(t, err)

		view, err := provider.GetByID(id, requester)
		require.NoError(t, err)
		require.Equal(t, models.RequestStatusDraft, view.Status)
		require.Len(t, view.Stages, 2)
		require.Equal(t, "Manager Review", view.Stages[0].Name)
		require.Equal(t, "Department Head Approval", view.Stages[1].Name)
	})

	t.Run(`finance threshold adds a finance stage`, func(t *testing.T) {
		provider, _ := testProvider(t)
		id, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type:       models.RequestTypeMAF,
			Title:      "New servers",
			Department: "IT",
			Estimate:   estimate(10000),
		})
		require.NoError(t, err)

		view, err := provider.GetByID(id, requester)
		require.NoError(t, err)
		require.Len(t, view.Stages, 3)
		require.Equal(t, "Finance Approval", view.Stages[2].Name)
		require.Equal(t, models.RoleFinance, view.Stages[2].RequiredRole)
	})

	t.Run(`executive threshold adds a one-of stage on top`, func(t *testing.T) {
		provider, _ := testProvider(t)
		id, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type:       models.RequestTypeMAF,
			Title:      "Datacenter move",
			Department: "IT",
			Estimate:   estimate(250000),
		})
		require.NoError(t, err)

		view, err := provider.GetByID(id, requester)
		require.NoError(t, err)
		require.Len(t, view.Stages, 4)
		require.Equal(t, "Executive Approval", view.Stages[3].Name)
		require.ElementsMatch(t, []models.UserRole{models.RoleCEO, models.RoleCOO}, view.Stages[3].OneOfRoles)
	})

	t.Run(`pr always routes through procurement and finance`, func(t *testing.T) {
		provider, _ := testProvider(t)
		id, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type:       models.RequestTypePR,
			Title:      "Office chairs",
			Department: "IT",
		})
		require.NoError(t, err)

		view, err := provider.GetByID(id, requester)
		require.NoError(t, err)
		require.Len(t, view.Stages, 2)
		require.Equal(t, "Procurement Review", view.Stages[0].Name)
		require.Equal(t, "Finance Approval", view.Stages[1].Name)
	})

	t.Run(`sequence numbers are assigned in order`, func(t *testing.T) {
		provider, _ := testProvider(t)
		first, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: models.RequestTypeMAF, Title: "A", Department: "IT",
		})
		require.NoError(t, err)
		second, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: models.RequestTypeMAF, Title: "B", Department: "IT",
		})
		require.NoError(t, err)

		firstView, err := provider.GetByID(first, requester)
		require.NoError(t, err)
		secondView, err := provider.GetByID(second, requester)
		require.NoError(t, err)
		require.NotEqual(t, firstView.SeqNumber, secondView.SeqNumber)
		require.Regexp(t, `^REQ-MAF-\d{6}-\d{3}$`, firstView.SeqNumber)
	})

	t.Run(`unknown type without template is rejected`, func(t *testing.T) {
		provider, _ := testProvider(t)
		_, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: "TRAVEL", Title: "Conference trip", Department: "IT",
		})
		require.True(t, models.IsKind(err, models.KindPreconditionFailed))
	})

	t.Run(`title is required`, func(t *testing.T) {
		provider, _ := testProvider(t)
		_, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: models.RequestTypeMAF, Department: "IT",
		})
		require.True(t, models.IsKind(err, models.KindPreconditionFailed))
	})
}

func TestCreateFromTemplate(t *testing.T) {
	seedTemplate := func(t *testing.T, gdb *gorm.DB, reqType models.RequestType) string {
		t.Helper()
		id, err := templatestore.NewInstance(gdb).Create(dbmodels.StageTemplate{
			Name:        "Custom flow",
			RequestType: reqType,
			Stages: []dbmodels.TemplateStage{
				{OrderIdx: 0, Name: "Peer Review", Kind: models.StageKindReview, Departments: []string{"IT", "Finance"}},
				{OrderIdx: 1, Name: "CFO Signoff", Kind: models.StageKindApproval, RequiredRole: models.RoleCFO},
			},
		})
		require.NoError(t, err)
		return id
	}

	t.Run(`template stages are cloned verbatim`, func(t *testing.T) {
		provider, gdb := testProvider(t)
		templateID := seedTemplate(t, gdb, models.RequestTypeMAF)

		id, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type:       models.RequestTypeMAF,
			Title:      "Special purchase",
			Department: "IT",
			TemplateID: templateID,
		})
		require.NoError(t, err)

		view, err := provider.GetByID(id, requester)
		require.NoError(t, err)
		require.Equal(t, templateID, view.TemplateID)
		require.Len(t, view.Stages, 2)
		require.Equal(t, "Peer Review", view.Stages[0].Name)
		require.ElementsMatch(t, []string{"IT", "Finance"}, view.Stages[0].Departments)
		require.Equal(t, models.RoleCFO, view.Stages[1].RequiredRole)
	})

	t.Run(`template type must match the request type`, func(t *testing.T) {
		provider, gdb := testProvider(t)
		templateID := seedTemplate(t, gdb, models.RequestTypePR)

		_, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type:       models.RequestTypeMAF,
			Title:      "Mismatch",
			Department: "IT",
			TemplateID: templateID,
		})
		require.True(t, models.IsKind(err, models.KindPreconditionFailed))
	})

	t.Run(`unknown template`, func(t *testing.T) {
		provider, _ := testProvider(t)
		_, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type:       models.RequestTypeMAF,
			Title:      "Ghost",
			Department: "IT",
			TemplateID: "missing",
		})
		require.True(t, models.IsKind(err, models.KindNotFound))
	})
}

func TestAccessGate(t *testing.T) {
	t.Run(`read access follows the evaluator`, func(t *testing.T) {
		provider, _ := testProvider(t)
		id, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: models.RequestTypeMAF, Title: "Visible", Department: "IT",
		})
		require.NoError(t, err)

		_, err = provider.GetByID(id, requester)
		require.NoError(t, err)

		_, err = provider.GetByID(id, cfo)
		require.NoError(t, err)

		_, err = provider.GetByID(id, outsider)
		require.True(t, models.IsKind(err, models.KindUnauthorized))
	})

	t.Run(`list drops invisible records`, func(t *testing.T) {
		provider, _ := testProvider(t)
		_, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: models.RequestTypeMAF, Title: "Mine", Department: "IT",
		})
		require.NoError(t, err)

		list, _, err := provider.List(requester, requestapimodels.RequestFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)

		list, _, err = provider.List(outsider, requestapimodels.RequestFilter{})
		require.NoError(t, err)
		require.Len(t, list, 0)
	})
}

func TestUpdateDraft(t *testing.T) {
	t.Run(`requester edits own draft`, func(t *testing.T) {
		provider, _ := testProvider(t)
		id, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: models.RequestTypeMAF, Title: "Before", Department: "IT",
		})
		require.NoError(t, err)

		require.NoError(t, provider.UpdateDraft(id, requester, requestapimodels.RequestEditData{
			Title:    "After",
			Estimate: estimate(900),
			Currency: "EUR",
		}))

		view, err := provider.GetByID(id, requester)
		require.NoError(t, err)
		require.Equal(t, "After", view.Title)
		require.Equal(t, 900.0, *view.Estimate)
		require.Equal(t, "EUR", view.Currency)
	})

	t.Run(`edit by another user is rejected`, func(t *testing.T) {
		provider, _ := testProvider(t)
		id, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: models.RequestTypeMAF, Title: "Locked", Department: "IT",
		})
		require.NoError(t, err)

		err = provider.UpdateDraft(id, outsider, requestapimodels.RequestEditData{Title: "Hijack"})
		require.True(t, models.IsKind(err, models.KindUnauthorized))
	})
}

func TestHistory(t *testing.T) {
	t.Run(`creation shows up in the audit trail`, func(t *testing.T) {
		provider, _ := testProvider(t)
		id, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: models.RequestTypeMAF, Title: "Tracked", Department: "IT",
		})
		require.NoError(t, err)

		history, err := provider.History(id, requester)
		require.NoError(t, err)
		require.Len(t, history.Actions, 0)
		require.Len(t, history.Audit, 1)
		require.Equal(t, models.AuditActionCreated, history.Audit[0].Action)
	})

	t.Run(`history is gated like reads`, func(t *testing.T) {
		provider, _ := testProvider(t)
		id, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: models.RequestTypeMAF, Title: "Private", Department: "IT",
		})
		require.NoError(t, err)

		_, err = provider.History(id, outsider)
		require.True(t, models.IsKind(err, models.KindUnauthorized))
	})
}

func TestExportRegistry(t *testing.T) {
	xlsexport.NewHandler()

	t.Run(`registry export respects visibility`, func(t *testing.T) {
		provider, _ := testProvider(t)
		_, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: models.RequestTypeMAF, Title: "Exported", Department: "IT",
		})
		require.NoError(t, err)

		buf, err := provider.ExportRegistry(requester, requestapimodels.RequestFilter{})
		require.NoError(t, err)
		require.NotZero(t, buf.Len())
	})
}

func TestApprovalSheet(t *testing.T) {
	t.Run(`sheet renders for a visible request`, func(t *testing.T) {
		provider, _ := testProvider(t)
		id, err := provider.Create(requester, requestapimodels.RequestCreateData{
			Type: models.RequestTypeMAF, Title: "Printable", Department: "IT", Estimate: estimate(1200), Currency: "USD",
		})
		require.NoError(t, err)

		pdfFile, err := provider.ApprovalSheet(id, requester)
		require.NoError(t, err)
		require.NotEmpty(t, pdfFile)
		require.Equal(t, "%PDF", string(pdfFile[:4]))
	})
}
