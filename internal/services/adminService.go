package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"toolkithub/internal/config"
	"toolkithub/internal/metrics"
	"toolkithub/internal/models"
	"toolkithub/internal/repositories"
	"toolkithub/internal/utils"
)

type AdminService interface {
	Enabled() bool
	Login(ctx context.Context, reqBody models.AdminLoginRequestBody, remoteAddr string) (*models.AdminSession, error)
	// Validate checks a session token and returns the session it carries.
	Validate(token string) (*models.AdminSession, error)
}

type adminService struct {
	enabled      bool
	adminID      string
	passwordHash []byte
	jwtSecret    []byte
	logRepo      repositories.AdminLogRepository
	now          func() time.Time
}

func NewAdminService(cfg *config.Config, logRepo repositories.AdminLogRepository) AdminService {
	return &adminService{
		enabled:      cfg.AdminEnabled(),
		adminID:      cfg.AdminID,
		passwordHash: []byte(cfg.AdminPasswordHash),
		jwtSecret:    []byte(cfg.JWTSecret),
		logRepo:      logRepo,
		now:          now,
	}
}

func (s *adminService) Enabled() bool {
	return s.enabled
}

func (s *adminService) Login(ctx context.Context, reqBody models.AdminLoginRequestBody, remoteAddr string) (*models.AdminSession, error) {
	if !s.Enabled() {
		log.Warn().Msg("Admin login attempted but no admin credentials are configured")
		return nil, ErrAdminDisabled
	}
	if err := validate.Validate(reqBody); err != nil {
		return nil, err
	}

	idMatch := subtle.ConstantTimeCompare([]byte(reqBody.ID), []byte(s.adminID)) == 1
	pwErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(reqBody.Password))
	ok := idMatch && pwErr == nil
	s.audit(ctx, reqBody.ID, ok, remoteAddr)

	if !ok {
		metrics.LoginAttemptsTotal.WithLabelValues("admin", "failed").Inc()
		log.Warn().Str("remoteAddr", remoteAddr).Msg("Admin login rejected")
		return nil, ErrInvalidCredentials
	}

	expiresAt := s.now().Add(config.AdminSessionTTL)
	token, err := utils.GenerateAdminJWT(s.jwtSecret, s.adminID, expiresAt)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign admin session")
		return nil, err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("admin", "success").Inc()
	log.Info().Str("remoteAddr", remoteAddr).Time("expiresAt", expiresAt).Msg("Admin session started")

	return &models.AdminSession{IsAdmin: true, ExpiresAt: expiresAt.UnixMilli(), Token: token}, nil
}

func (s *adminService) Validate(token string) (*models.AdminSession, error) {
	if !s.Enabled() {
		return nil, ErrAdminDisabled
	}
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims, err := utils.ParseJWT(s.jwtSecret, token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidSession
	}
	if !claims.Admin || claims.ID != s.adminID || claims.ExpiresAt == nil {
		return nil, ErrInvalidSession
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrSessionExpired
	}
	return &models.AdminSession{IsAdmin: true, ExpiresAt: claims.ExpiresAt.Time.UnixMilli()}, nil
}

// audit records the attempt. A failed write never blocks the login.
func (s *adminService) audit(ctx context.Context, adminID string, success bool, remoteAddr string) {
	if s.logRepo == nil {
		return
	}
	entry := &models.AdminLog{AdminID: adminID, Success: success, RemoteAddr: remoteAddr, CreatedAt: s.now()}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Msg("Failed to write admin audit log")
	}
}
