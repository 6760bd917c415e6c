package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"otp-auth/internal/data/entity"
	"otp-auth/internal/dto/request"
	"otp-auth/pkg/apperror"
	"otp-auth/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendOTP_RejectsEmailWithoutAt(t *testing.T) {
	f := newFixture(t)

	for _, email := range []string{"", "plainaddress", "   "} {
		_, err := f.auth.SendOTP(context.Background(), &request.SendOTPRequest{Email: email})
		requireKind(t, err, apperror.KindInvalidInput, "Invalid email format")
	}
	assert.Empty(t, f.mailer.sent)
}

func TestSendOTP_StoresCodeWithExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.SendOTP(ctx, &request.SendOTPRequest{Email: "a@b.com"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "a@b.com", resp.Email)
	assert.Equal(t, "OTP sent successfully to your email", resp.Message)

	user, err := f.repo.User.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, user.OTP)
	require.NotNil(t, user.OTPExpiry)
	assert.Len(t, *user.OTP, 6)
	assert.WithinDuration(t, f.now.Add(10*time.Minute), *user.OTPExpiry, time.Second)
	assert.Equal(t, *user.OTP, f.mailer.last(t).code)
}

func TestSendOTP_ResendOverwritesCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	codes := []string{"111111", "222222"}
	f.auth.generate = func(int) (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	_, err := f.auth.SendOTP(ctx, &request.SendOTPRequest{Email: "a@b.com"})
	require.NoError(t, err)
	_, err = f.auth.SendOTP(ctx, &request.SendOTPRequest{Email: "a@b.com"})
	require.NoError(t, err)

	count, err := f.repo.User.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	user, _ := f.repo.User.FindByEmail(ctx, "a@b.com")
	assert.Equal(t, "222222", *user.OTP)
}

func TestSendOTP_MailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	resp, err := f.auth.SendOTP(context.Background(), &request.SendOTPRequest{Email: "a@b.com"})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	user, _ := f.repo.User.FindByEmail(context.Background(), "a@b.com")
	require.NotNil(t, user.OTP)
}

func TestSendOTP_GeneratorFailure(t *testing.T) {
	f := newFixture(t)
	f.auth.generate = func(int) (string, error) { return "", errors.New("no entropy") }

	_, err := f.auth.SendOTP(context.Background(), &request.SendOTPRequest{Email: "a@b.com"})
	requireKind(t, err, apperror.KindInvalidInput, "Failed to send OTP. Please try again.")
}

func sendAndCode(t *testing.T, f *fixture, email string) string {
	t.Helper()
	_, err := f.auth.SendOTP(context.Background(), &request.SendOTPRequest{Email: email})
	require.NoError(t, err)
	return f.mailer.last(t).code
}

func TestVerifyOTP_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.VerifyOTP(context.Background(), &request.VerifyOTPRequest{Email: "ghost@b.com", OTP: "123456"})
	requireKind(t, err, apperror.KindUnauthorized, "User not found")
}

func TestVerifyOTP_WrongCodeKeepsStoredOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := sendAndCode(t, f, "a@b.com")

	wrong := "000000"
	if code == wrong {
		wrong = "999999"
	}
	_, err := f.auth.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "a@b.com", OTP: wrong})
	requireKind(t, err, apperror.KindUnauthorized, "Invalid OTP")

	user, _ := f.repo.User.FindByEmail(ctx, "a@b.com")
	require.NotNil(t, user.OTP)
	assert.Equal(t, code, *user.OTP)
	assert.False(t, user.IsVerified)
}

func TestVerifyOTP_Expired(t *testing.T) {
	f := newFixture(t)
	code := sendAndCode(t, f, "a@b.com")

	f.now = f.now.Add(10*time.Minute + time.Second)

	_, err := f.auth.VerifyOTP(context.Background(), &request.VerifyOTPRequest{Email: "a@b.com", OTP: code})
	requireKind(t, err, apperror.KindUnauthorized, "OTP has expired")
}

func TestVerifyOTP_SucceedsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := sendAndCode(t, f, "a@b.com")

	resp, err := f.auth.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "a@b.com", OTP: code})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, entity.RoleUser, resp.Role)
	assert.Equal(t, "a@b.com", resp.User.Email)
	assert.Len(t, resp.CSRFToken, 64)
	assert.NotEmpty(t, resp.Token)

	claims, err := f.sessions.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.ID)
	assert.Equal(t, "user", claims.Role)

	assert.True(t, f.csrf.Validate(resp.User.ID, resp.CSRFToken))

	user, _ := f.repo.User.FindByEmail(ctx, "a@b.com")
	assert.True(t, user.IsVerified)
	assert.Nil(t, user.OTP)
	assert.Nil(t, user.OTPExpiry)

	_, err = f.auth.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "a@b.com", OTP: code})
	requireKind(t, err, apperror.KindUnauthorized, "Invalid OTP")
}

func TestVerifyOTP_ConcurrentSameCode(t *testing.T) {
	f := newFixture(t)
	code := sendAndCode(t, f, "a@b.com")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.auth.VerifyOTP(context.Background(), &request.VerifyOTPRequest{Email: "a@b.com", OTP: code}); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestVerifyOTP_AdminRoleCarriedIntoSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := sendAndCode(t, f, "boss@b.com")

	user, _ := f.repo.User.FindByEmail(ctx, "boss@b.com")
	_, err := f.repo.User.UpdateRole(ctx, user.ID, entity.RoleAdmin)
	require.NoError(t, err)

	resp, err := f.auth.VerifyOTP(ctx, &request.VerifyOTPRequest{Email: "boss@b.com", OTP: code})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, resp.Role)
}

func TestLogout_InvalidatesCSRF(t *testing.T) {
	f := newFixture(t)
	token, err := f.csrf.IssueFor(7)
	require.NoError(t, err)

	f.auth.Logout(context.Background(), &utils.Identity{ID: 7})
	assert.False(t, f.csrf.Validate(7, token))

	f.auth.Logout(context.Background(), nil)
}
