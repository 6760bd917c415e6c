package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otp-auth/internal/data/entity"
	"otp-auth/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// OTPRepository manages the otp/otp_expiry pair on the users table.
type OTPRepository interface {
	// Upsert creates the user row for email if needed and sets a new code.
	Upsert(ctx context.Context, email, code string, expiresAt time.Time) error
	// Consume clears the code and marks the account verified, but only while
	// the stored code still equals code. Returns nil when it no longer does.
	Consume(ctx context.Context, email, code string) (*entity.User, error)
}

type otpRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOTPRepository(db database.PgxIface, log *zap.Logger) OTPRepository {
	return &otpRepository{
		db:  db,
		log: log.With(zap.String("repository", "otp")),
	}
}

func (r *otpRepository) Upsert(ctx context.Context, email, code string, expiresAt time.Time) error {
	query := `
		INSERT INTO users (email, otp, otp_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (email)
		DO UPDATE SET otp = EXCLUDED.otp, otp_expiry = EXCLUDED.otp_expiry, updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query, email, code, expiresAt); err != nil {
		r.log.Error("Failed to upsert OTP", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("upsert OTP for %s: %w", email, err)
	}

	return nil
}

func (r *otpRepository) Consume(ctx context.Context, email, code string) (*entity.User, error) {
	query := `
		UPDATE users
		SET otp = NULL, otp_expiry = NULL, is_verified = TRUE, updated_at = NOW()
		WHERE email = $1 AND otp = $2
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, email, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to consume OTP", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("consume OTP for %s: %w", email, err)
	}

	return user, nil
}
