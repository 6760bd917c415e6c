package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"otp-auth/internal/data/entity"
	"otp-auth/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrEmailTaken is returned when an update collides with the unique email index.
var ErrEmailTaken = errors.New("email already in use")

const uniqueViolation = "23505"

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error)
	CountAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context, recent int) (*entity.UserStats, error)
	UpdateProfile(ctx context.Context, email string, update entity.ProfileUpdate) (*entity.User, error)
	UpdateEmail(ctx context.Context, email, newEmail string) (*entity.User, error)
	UpdateRole(ctx context.Context, id int64, role entity.UserRole) (*entity.User, error)
	Delete(ctx context.Context, id int64) (*entity.User, error)
}

const userColumns = `id, email, role, is_verified, otp, otp_expiry,
		       first_name, last_name, phone, created_at, updated_at`

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Role,
		&user.IsVerified,
		&user.OTP,
		&user.OTPExpiry,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// queryOne runs a single-row query; a missing row yields (nil, nil)
func (ur *userRepository) queryOne(ctx context.Context, op, query string, args ...any) (*entity.User, error) {
	user, err := scanUser(ur.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (ur *userRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return ur.queryOne(ctx, fmt.Sprintf("find user by id %d", id), query, id)
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return ur.queryOne(ctx, "find user by email "+email, query, email)
}

// FindAll retrieves a page of users, newest first
func (ur *userRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	return ur.queryMany(ctx, fmt.Sprintf("find all users limit %d offset %d", limit, offset), query, limit, offset)
}

func (ur *userRepository) queryMany(ctx context.Context, op, query string, args ...any) ([]*entity.User, error) {
	rows, err := ur.db.Query(ctx, query, args...)
	if err != nil {
		ur.log.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		ur.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate users rows: %w", err)
	}

	return users, nil
}

func (ur *userRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := ur.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		ur.log.Error("Database error counting users", zap.Error(err))
		return 0, fmt.Errorf("count all users: %w", err)
	}
	return count, nil
}

func (ur *userRepository) Stats(ctx context.Context, recent int) (*entity.UserStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_verified),
		       COUNT(*) FILTER (WHERE role = $1)
		FROM users
	`

	stats := &entity.UserStats{}
	err := ur.db.QueryRow(ctx, query, entity.RoleAdmin).Scan(
		&stats.TotalUsers,
		&stats.VerifiedUsers,
		&stats.AdminUsers,
	)
	if err != nil {
		ur.log.Error("Failed to count user stats", zap.Error(err))
		return nil, fmt.Errorf("count user stats: %w", err)
	}

	stats.RecentUsers, err = ur.FindAll(ctx, recent, 0)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// UpdateProfile writes only the fields present in update
func (ur *userRepository) UpdateProfile(ctx context.Context, email string, update entity.ProfileUpdate) (*entity.User, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("first_name", update.FirstName)
	add("last_name", update.LastName)
	add("phone", update.Phone)

	if len(sets) == 0 {
		return nil, fmt.Errorf("update profile %s: no fields", email)
	}

	args = append(args, email)
	query := fmt.Sprintf(`
		UPDATE users
		SET %s, updated_at = NOW()
		WHERE email = $%d
		RETURNING `+userColumns,
		strings.Join(sets, ", "), len(args))

	return ur.queryOne(ctx, "update profile "+email, query, args...)
}

func (ur *userRepository) UpdateEmail(ctx context.Context, email, newEmail string) (*entity.User, error) {
	query := `
		UPDATE users
		SET email = $1, updated_at = NOW()
		WHERE email = $2
		RETURNING ` + userColumns

	user, err := scanUser(ur.db.QueryRow(ctx, query, newEmail, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, ErrEmailTaken
	}
	if err != nil {
		ur.log.Error("Failed to update email",
			zap.Error(err),
			zap.String("email", email),
			zap.String("new_email", newEmail),
		)
		return nil, fmt.Errorf("update email %s: %w", email, err)
	}

	return user, nil
}

func (ur *userRepository) UpdateRole(ctx context.Context, id int64, role entity.UserRole) (*entity.User, error) {
	query := `
		UPDATE users
		SET role = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + userColumns

	return ur.queryOne(ctx, fmt.Sprintf("update role of user %d", id), query, role, id)
}

// Delete removes the row and returns it, or nil when no such user exists
func (ur *userRepository) Delete(ctx context.Context, id int64) (*entity.User, error) {
	query := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns

	user, err := ur.queryOne(ctx, fmt.Sprintf("delete user %d", id), query, id)
	if err != nil || user == nil {
		return user, err
	}

	ur.log.Info("User deleted", zap.Int64("id", id), zap.String("email", user.Email))
	return user, nil
}
