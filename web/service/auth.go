package service

import (
	"context"
	"strings"

	"github.com/goccy/go-json"
	"github.com/procodebh/crm-console/database/model"
	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/util/common"
	"github.com/procodebh/crm-console/util/metrics"
	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/gateway"
	"github.com/procodebh/crm-console/web/session"
)

// RequestMeta identifies the client for the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// LoginOutcome tells the login screen where to go next and what to toast.
type LoginOutcome struct {
	// Verified is true when the principal was stored; false means an OTP was
	// sent to Email.
	Verified bool
	Email    string
	Message  string
	Redirect string
}

// AuthService runs the login, OTP and logout flows.
type AuthService struct {
	auditService AuditLogService
}

// Login submits credentials. A verified account is logged in right away;
// otherwise the email is kept pending for OTP verification.
func (s *AuthService) Login(ctx context.Context, api *gateway.Client, m *session.Manager, email, password string, meta RequestMeta) (LoginOutcome, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginOutcome{}, invalid("Please enter email and password")
	}

	resp, err := api.Post(ctx, "/login", gateway.Payload{"email": email, "password": password})
	if err != nil {
		s.failed("login", email, err, meta)
		return LoginOutcome{}, err
	}

	var result entity.LoginResult
	if err := resp.Decode(&result); err != nil {
		s.failed("login", email, err, meta)
		return LoginOutcome{}, err
	}

	if result.IsVerified {
		p, err := s.establish(m, result)
		if err != nil {
			s.failed("login", email, err, meta)
			return LoginOutcome{}, err
		}
		metrics.LoginAttemptsTotal.WithLabelValues("login", "success").Inc()
		s.audit(model.AuditLogin, p, email, meta)
		return LoginOutcome{
			Verified: true,
			Email:    p.Email,
			Message:  messageOr(resp, "Logged in successfully"),
			Redirect: session.DashboardPath,
		}, nil
	}

	pending := strings.TrimSpace(result.Email)
	if pending == "" {
		pending = email
	}
	if err := m.SetPendingEmail(pending); err != nil {
		return LoginOutcome{}, err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("login", "otp_required").Inc()
	s.audit(model.AuditOTPSent, nil, pending, meta)
	return LoginOutcome{
		Email:    pending,
		Message:  messageOr(resp, "OTP sent to your email"),
		Redirect: session.OTPPath,
	}, nil
}

// ErrOTPExpired is returned when no login is waiting for an OTP.
var ErrOTPExpired = invalid("Session expired, please login again")

// VerifyOTP completes a pending login.
func (s *AuthService) VerifyOTP(ctx context.Context, api *gateway.Client, m *session.Manager, otp string, meta RequestMeta) (LoginOutcome, error) {
	email := m.PendingEmail()
	if email == "" {
		return LoginOutcome{}, ErrOTPExpired
	}
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return LoginOutcome{}, invalid("Please enter OTP")
	}

	resp, err := api.Post(ctx, "/verify-otp", gateway.Payload{"email": email, "otp": otp})
	if err != nil {
		s.failed("otp", email, err, meta)
		return LoginOutcome{}, err
	}
	var result entity.LoginResult
	if err := resp.Decode(&result); err != nil {
		s.failed("otp", email, err, meta)
		return LoginOutcome{}, err
	}
	p, err := s.establish(m, result)
	if err != nil {
		s.failed("otp", email, err, meta)
		return LoginOutcome{}, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("otp", "success").Inc()
	s.audit(model.AuditLogin, p, email, meta)
	return LoginOutcome{
		Verified: true,
		Email:    p.Email,
		Message:  messageOr(resp, "OTP verified"),
		Redirect: session.DashboardPath,
	}, nil
}

// CancelOTP forgets the pending login so another account can be used.
func (s *AuthService) CancelOTP(m *session.Manager) error {
	return m.ClearPendingEmail()
}

// Logout tells the backend (best effort) and clears the session record.
func (s *AuthService) Logout(ctx context.Context, api *gateway.Client, m *session.Manager, meta RequestMeta) error {
	p, loggedIn := m.Principal()
	if m.Token() != "" {
		if _, err := api.Post(ctx, "/logout", nil); err != nil {
			logger.Debug("backend logout failed: ", err)
		}
	}
	if err := m.Logout(); err != nil {
		return err
	}
	if loggedIn {
		s.audit(model.AuditLogout, &p, p.Email, meta)
	}
	return nil
}

func (s *AuthService) establish(m *session.Manager, result entity.LoginResult) (*session.Principal, error) {
	raw := strings.TrimSpace(string(result.User))
	if raw == "" || raw == "null" {
		return nil, common.NewError("login response did not include the user")
	}
	var p session.Principal
	if err := json.Unmarshal(result.User, &p); err != nil {
		return nil, common.NewErrorf("login response carried a malformed user: %v", err)
	}
	if err := m.SetPrincipal(p, result.Token); err != nil {
		return nil, err
	}
	stored, _ := m.Principal()
	return &stored, nil
}

func (s *AuthService) failed(step, email string, err error, meta RequestMeta) {
	metrics.LoginAttemptsTotal.WithLabelValues(step, "failed").Inc()
	logger.Infof("%s failed for %s: %v", step, email, err)
	if auditErr := s.auditService.LogAction(AuditEntry{
		Email:     email,
		Action:    model.AuditLoginFailed,
		Resource:  step,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"error": err.Error()},
	}); auditErr != nil {
		logger.Warning("Failed to log audit action:", auditErr)
	}
}

func (s *AuthService) audit(action model.AuditAction, p *session.Principal, email string, meta RequestMeta) {
	if err := s.auditService.LogAction(AuditEntry{
		Principal: p,
		Email:     email,
		Action:    action,
		Resource:  "session",
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}); err != nil {
		logger.Warning("Failed to log audit action:", err)
	}
}
