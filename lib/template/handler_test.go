package templatehandler

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"approval-flow-backend/models"
	templateapimodels "approval-flow-backend/models/api/template"
	dbmodels "approval-flow-backend/models/db"
)

var admin = models.Principal{ID: "user-admin", Role: models.RoleAdmin, Name: "Admin"}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(
		&dbmodels.StageTemplate{},
		&dbmodels.TemplateStage{},
		&dbmodels.AuditEntry{},
	))
	return gdb
}

func sampleTemplate() templateapimodels.TemplateData {
	threshold := 5000.0
	return templateapimodels.TemplateData{
		Name:        "Expedited purchase",
		RequestType: models.RequestTypePR,
		Description: "Shortened chain for urgent purchases",
		Stages: []templateapimodels.TemplateStageData{
			{Name: "Manager Signoff", Kind: models.StageKindApproval, RequiredRole: models.RoleManager, Departments: []string{"IT"}},
			{Name: "Executive Signoff", Kind: models.StageKindApproval, OneOfRoles: []models.UserRole{models.RoleCEO, models.RoleCFO}, Threshold: &threshold},
		},
	}
}

func TestTemplates(t *testing.T) {
	t.Run(`create and read back`, func(t *testing.T) {
		provider := NewHandlerWithDB(testDB(t))
		id, err := provider.Create(admin, sampleTemplate())
		require.NoError(t, err)

		view, err := provider.GetByID(id)
		require.NoError(t, err)
		require.Equal(t, "Expedited purchase", view.Name)
		require.Equal(t, models.RequestTypePR, view.RequestType)
		require.Len(t, view.Stages, 2)
		require.Equal(t, "Manager Signoff", view.Stages[0].Name)
		require.Equal(t, models.RoleManager, view.Stages[0].RequiredRole)
		require.ElementsMatch(t, []models.UserRole{models.RoleCEO, models.RoleCFO}, view.Stages[1].OneOfRoles)
		require.Equal(t, 5000.0, *view.Stages[1].Threshold)
	})

	t.Run(`name is required`, func(t *testing.T) {
		provider := NewHandlerWithDB(testDB(t))
		data := sampleTemplate()
		data.Name = ""
		_, err := provider.Create(admin, data)
		require.True(t, models.IsKind(err, models.KindPreconditionFailed))
	})

	t.Run(`at least one stage`, func(t *testing.T) {
		provider := NewHandlerWithDB(testDB(t))
		data := sampleTemplate()
		data.Stages = nil
		_, err := provider.Create(admin, data)
		require.True(t, models.IsKind(err, models.KindPreconditionFailed))
	})

	t.Run(`unknown role is rejected`, func(t *testing.T) {
		provider := NewHandlerWithDB(testDB(t))
		data := sampleTemplate()
		data.Stages[0].RequiredRole = "intern"
		_, err := provider.Create(admin, data)
		require.True(t, models.IsKind(err, models.KindPreconditionFailed))
	})

	t.Run(`list is ordered by name`, func(t *testing.T) {
		provider := NewHandlerWithDB(testDB(t))
		second := sampleTemplate()
		second.Name = "Zero-touch renewal"
		_, err := provider.Create(admin, second)
		require.NoError(t, err)
		_, err = provider.Create(admin, sampleTemplate())
		require.NoError(t, err)

		list, err := provider.List()
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "Expedited purchase", list[0].Name)
		require.Equal(t, "Zero-touch renewal", list[1].Name)
	})

	t.Run(`delete removes template and stages`, func(t *testing.T) {
		provider := NewHandlerWithDB(testDB(t))
		id, err := provider.Create(admin, sampleTemplate())
		require.NoError(t, err)

		require.NoError(t, provider.Delete(id, admin))

		_, err = provider.GetByID(id)
		require.True(t, models.IsKind(err, models.KindNotFound))
	})

	t.Run(`delete of an unknown template`, func(t *testing.T) {
		provider := NewHandlerWithDB(testDB(t))
		err := provider.Delete("missing", admin)
		require.True(t, models.IsKind(err, models.KindNotFound))
	})
}
