package job

import (
	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/web/service"
)

// AuditRetentionDays is how long audit entries are kept.
const AuditRetentionDays = 30

// AuditCleanupJob cleans up old audit logs
type AuditCleanupJob struct {
	auditService  service.AuditLogService
	retentionDays int
}

// NewAuditCleanupJob creates a new audit cleanup job
func NewAuditCleanupJob() *AuditCleanupJob {
	return &AuditCleanupJob{retentionDays: AuditRetentionDays}
}

// Run cleans up old audit logs
func (j *AuditCleanupJob) Run() {
	logger.Debug("Audit cleanup job started")

	if err := j.auditService.CleanOldLogs(j.retentionDays); err != nil {
		logger.Warning("Failed to clean old audit logs:", err)
	} else {
		logger.Debugf("Audit cleanup completed (retention: %d days)", j.retentionDays)
	}
}
