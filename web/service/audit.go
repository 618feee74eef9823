package service

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/procodebh/crm-console/database"
	"github.com/procodebh/crm-console/database/model"
	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/web/session"
)

// AuditLogService records session events in the local database.
type AuditLogService struct{}

// AuditEntry is one event to record.
type AuditEntry struct {
	Principal *session.Principal
	// Email identifies the actor when no principal exists yet, e.g. a failed
	// login.
	Email     string
	Action    model.AuditAction
	Resource  string
	Path      string
	IP        string
	UserAgent string
	Details   map[string]any
}

// LogAction stores e. Without a database it is a no-op.
func (s *AuditLogService) LogAction(e AuditEntry) error {
	db := database.GetDB()
	if db == nil {
		return nil
	}

	detailsJSON := ""
	if e.Details != nil {
		jsonData, err := json.Marshal(e.Details)
		if err != nil {
			logger.Warning("Failed to marshal audit log details:", err)
		} else {
			detailsJSON = string(jsonData)
		}
	}

	auditLog := model.AuditLog{
		Email:     e.Email,
		Action:    e.Action,
		Resource:  e.Resource,
		Path:      e.Path,
		IP:        e.IP,
		UserAgent: e.UserAgent,
		Details:   detailsJSON,
		Timestamp: time.Now(),
	}
	if e.Principal != nil {
		auditLog.UserID = e.Principal.ID
		auditLog.Email = e.Principal.Email
		auditLog.Role = string(e.Principal.Role)
	}

	if err := db.Create(&auditLog).Error; err != nil {
		logger.Warningf("Failed to create audit log: email=%s, action=%s, error=%v", auditLog.Email, e.Action, err)
		return err
	}
	return nil
}

// AuditQuery filters GetAuditLogs.
type AuditQuery struct {
	UserID    string
	Action    model.AuditAction
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// GetAuditLogs returns matching entries newest first, and their total count.
func (s *AuditLogService) GetAuditLogs(q AuditQuery) ([]model.AuditLog, int64, error) {
	db := database.GetDB()
	if db == nil {
		return nil, 0, nil
	}

	query := db.Model(&model.AuditLog{})
	if q.UserID != "" {
		query = query.Where("user_id = ?", q.UserID)
	}
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}
	if q.StartTime != nil {
		query = query.Where("timestamp >= ?", q.StartTime)
	}
	if q.EndTime != nil {
		query = query.Where("timestamp <= ?", q.EndTime)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	var logs []model.AuditLog
	if err := query.Order("timestamp DESC").Limit(limit).Offset(q.Offset).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// CleanOldLogs removes entries older than days.
func (s *AuditLogService) CleanOldLogs(days int) error {
	if days <= 0 {
		return fmt.Errorf("days must be greater than 0")
	}
	db := database.GetDB()
	if db == nil {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	result := db.Where("timestamp < ?", cutoff).Delete(&model.AuditLog{})
	if result.Error != nil {
		return result.Error
	}

	logger.Infof("Cleaned %d old audit logs (older than %d days)", result.RowsAffected, days)
	return nil
}
