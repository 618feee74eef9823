package job

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procodebh/crm-console/database"
	"github.com/procodebh/crm-console/database/model"
)

func TestMain(m *testing.M) {
	if err := database.InitDB(":memory:"); err != nil {
		panic(err)
	}
	code := m.Run()
	_ = database.CloseDB()
	os.Exit(code)
}

func TestAuditCleanupKeepsRecentEntries(t *testing.T) {
	db := database.GetDB()
	now := time.Now()
	require.NoError(t, db.Create(&model.AuditLog{Email: "old@procode.in", Action: model.AuditLogin, Timestamp: now.AddDate(0, 0, -AuditRetentionDays-1)}).Error)
	require.NoError(t, db.Create(&model.AuditLog{Email: "new@procode.in", Action: model.AuditLogin, Timestamp: now.Add(-time.Hour)}).Error)

	NewAuditCleanupJob().Run()

	var emails []string
	require.NoError(t, db.Model(&model.AuditLog{}).Pluck("email", &emails).Error)
	assert.Equal(t, []string{"new@procode.in"}, emails)
}
