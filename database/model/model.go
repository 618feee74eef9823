// Package model contains the database models of the console's local store.
package model

import "time"

// AuditAction names a recorded session event.
type AuditAction string

const (
	AuditLogin       AuditAction = "LOGIN"
	AuditOTPSent     AuditAction = "OTP_SENT"
	AuditLoginFailed AuditAction = "LOGIN_FAILED"
	AuditLogout      AuditAction = "LOGOUT"
	AuditDenied      AuditAction = "ACCESS_DENIED"
	AuditCreate      AuditAction = "CREATE"
	AuditUpdate      AuditAction = "UPDATE"
	AuditDelete      AuditAction = "DELETE"
)

// AuditLog is one entry of the session audit trail.
type AuditLog struct {
	ID        int         `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string      `json:"userId" gorm:"index"`
	Email     string      `json:"email"`
	Role      string      `json:"role"`
	Action    AuditAction `json:"action" gorm:"index"`
	Resource  string      `json:"resource"`
	Path      string      `json:"path"`
	IP        string      `json:"ip"`
	UserAgent string      `json:"userAgent"`
	Details   string      `json:"details"`
	Timestamp time.Time   `json:"timestamp" gorm:"index"`
}
