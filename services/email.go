package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/gomail.v2"

	"prepdeck/models"
	"prepdeck/repository"
)

const verificationExpiry = 24 * time.Hour

var (
	ErrVerifyTokenInvalid = errors.New("verification token invalid")
	ErrVerifyTokenExpired = errors.New("verification token expired")
	ErrAlreadyVerified    = errors.New("email already verified")
)

// EmailService sends transactional mail over SMTP.
type EmailService struct {
	cfg EmailConfig
}

func NewEmailService(cfg EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Send delivers a single HTML email.
func (s *EmailService) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromAddress)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.SMTPUser, s.cfg.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// VerificationService issues and confirms single-use email verification
// tokens. Like refresh tokens, only SHA-256 hashes are stored; the raw token
// travels in the mailed link.
type VerificationService struct {
	repo   *repository.GORMRepository
	mailer *EmailService
	cfg    EmailConfig
}

func NewVerificationService(repo *repository.GORMRepository, mailer *EmailService, cfg EmailConfig) *VerificationService {
	return &VerificationService{repo: repo, mailer: mailer, cfg: cfg}
}

// SendVerification issues a fresh token for the user, invalidating any
// outstanding one, and mails the confirmation link.
func (s *VerificationService) SendVerification(ctx context.Context, user *models.User) error {
	if user.Verified() {
		return ErrAlreadyVerified
	}

	raw, err := generateVerificationToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.repo.InvalidateEmailVerifications(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to invalidate previous tokens: %w", err)
	}

	record := &models.EmailVerification{
		UserID:    user.ID,
		TokenHash: hashVerificationToken(raw),
		ExpiresAt: time.Now().Add(verificationExpiry),
	}
	if err := s.repo.CreateEmailVerification(ctx, record); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	link := fmt.Sprintf("%s?token=%s", s.cfg.VerifyURL, raw)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Confirm your email address to unlock scheduled sessions and email reminders:</p>
<p><a href=%q>Verify email</a></p>
<p>This link expires in 24 hours. If you did not sign up, you can ignore this message.</p>`,
		user.FullName, link)

	if s.mailer == nil {
		slog.Warn("Email service not configured, verification link not sent", "user_id", user.ID)
		return nil
	}
	if err := s.mailer.Send(user.Email, "Verify your email address", body); err != nil {
		return err
	}

	slog.Info("Verification email sent", "user_id", user.ID, "email", user.Email)
	return nil
}

// Confirm validates the raw token and marks the user verified. The token is
// consumed whether or not it has been used before; a consumed or unknown
// token is indistinguishable to the caller.
func (s *VerificationService) Confirm(ctx context.Context, rawToken string) (*models.User, error) {
	if rawToken == "" {
		return nil, ErrVerifyTokenInvalid
	}

	record, err := s.repo.GetEmailVerificationByHash(ctx, hashVerificationToken(rawToken))
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if record == nil {
		return nil, ErrVerifyTokenInvalid
	}
	if time.Now().After(record.ExpiresAt) {
		return nil, ErrVerifyTokenExpired
	}

	user, err := s.repo.GetUserByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrVerifyTokenInvalid
	}
	if user.Verified() {
		return nil, ErrAlreadyVerified
	}

	now := time.Now()
	if err := s.repo.ConsumeEmailVerification(ctx, record.ID, now); err != nil {
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}
	if err := s.repo.MarkUserVerified(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to mark verified: %w", err)
	}

	user.VerifiedAt = &now
	slog.Info("Email verified", "user_id", user.ID)
	return user, nil
}

func generateVerificationToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func hashVerificationToken(raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}
