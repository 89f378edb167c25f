package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alice = "a@x.com"

func TestScenario_RequestVerifyResetThenCodeIsSpent(t *testing.T) {
	// Arrange
	f := newFixture(t, []string{"4821"}, alice)
	ctx := context.Background()

	// Act & Assert
	require.NoError(t, f.uc.RequestCode(ctx, RequestCodeInput{Email: alice}))
	c1 := f.notifier.last().code
	assert.Equal(t, "4821", c1)

	_, err := f.uc.VerifyCode(ctx, VerifyCodeInput{Email: alice, OTP: "0000"})
	requireCode(t, err, goerror.CodeInvalidOrExpired)

	out, err := f.uc.VerifyCode(ctx, VerifyCodeInput{Email: alice, OTP: c1})
	require.NoError(t, err)
	require.NotEmpty(t, out.ResetToken)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), out.ExpiresAt)

	require.NoError(t, f.uc.ResetCredential(ctx, ResetCredentialInput{
		Email:       alice,
		ResetToken:  out.ResetToken,
		NewPassword: "Str0ng!Pass",
	}))
	assert.True(t, hash.NewBcrypt(4, "").Verify(f.store.password(alice), "Str0ng!Pass"))

	_, err = f.uc.VerifyCode(ctx, VerifyCodeInput{Email: alice, OTP: c1})
	requireCode(t, err, goerror.CodeInvalidOrExpired)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, alice, f.pub.events[0].Email)
}

func TestRequestCode_NormalizesEmail(t *testing.T) {
	f := newFixture(t, []string{"1234"}, alice)

	err := f.uc.RequestCode(context.Background(), RequestCodeInput{Email: "  A@X.com "})

	require.NoError(t, err)
	assert.Equal(t, alice, f.notifier.last().email)
	assert.Equal(t, 120*time.Second, f.notifier.last().ttl)
}

func TestRequestCode_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"Empty", ""},
		{"Blank", "   "},
		{"NoAt", "not-an-email"},
		{"NoDomain", "a@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []string{"1234"}, alice)

			err := f.uc.RequestCode(context.Background(), RequestCodeInput{Email: tt.email})

			requireCode(t, err, goerror.CodeInvalidInput)
			assert.Empty(t, f.notifier.sent)
		})
	}
}

func TestRequestCode_UnknownAccount(t *testing.T) {
	f := newFixture(t, []string{"1234"}, alice)

	err := f.uc.RequestCode(context.Background(), RequestCodeInput{Email: "ghost@x.com"})

	gerr := requireCode(t, err, goerror.CodeNotFound)
	assert.Equal(t, "Email is not registered", gerr.Msg())
	assert.Zero(t, f.store.attemptCount("ghost@x.com"))
}

func TestIssue_FourthWithinWindowIsRateLimited(t *testing.T) {
	// Arrange
	f := newFixture(t, []string{"1111", "2222", "3333", "4444", "5555"}, alice)
	ctx := context.Background()

	require.NoError(t, f.uc.RequestCode(ctx, RequestCodeInput{Email: alice}))
	f.clock.Advance(20 * time.Second)
	require.NoError(t, f.uc.ResendCode(ctx, ResendCodeInput{Email: alice}))
	f.clock.Advance(20 * time.Second)
	require.NoError(t, f.uc.ResendCode(ctx, ResendCodeInput{Email: alice}))
	f.clock.Advance(20 * time.Second)

	// Act
	err := f.uc.RequestCode(ctx, RequestCodeInput{Email: alice})

	// Assert
	gerr := requireCode(t, err, goerror.CodeTooManyRequest)
	assert.Equal(t, 60, gerr.Meta()["retry_after_seconds"])
	assert.Equal(t, 3, f.store.attemptCount(alice))
	assert.Len(t, f.notifier.sent, 3)

	f.clock.Advance(61 * time.Second)
	require.NoError(t, f.uc.RequestCode(ctx, RequestCodeInput{Email: alice}))
	assert.Equal(t, "5555", f.notifier.last().code)
}

func TestVerifyCode_ExpiredCodeFails(t *testing.T) {
	f := newFixture(t, []string{"5150"}, alice)
	ctx := context.Background()
	require.NoError(t, f.uc.RequestCode(ctx, RequestCodeInput{Email: alice}))

	f.clock.Advance(121 * time.Second)
	_, err := f.uc.VerifyCode(ctx, VerifyCodeInput{Email: alice, OTP: "5150"})

	requireCode(t, err, goerror.CodeInvalidOrExpired)
}

func TestVerifyCode_JustBeforeExpiryPasses(t *testing.T) {
	f := newFixture(t, []string{"5150"}, alice)
	ctx := context.Background()
	require.NoError(t, f.uc.RequestCode(ctx, RequestCodeInput{Email: alice}))

	f.clock.Advance(119 * time.Second)
	_, err := f.uc.VerifyCode(ctx, VerifyCodeInput{Email: alice, OTP: "5150"})

	require.NoError(t, err)
}

func TestVerifyCode_NewCodeInvalidatesOld(t *testing.T) {
	f := newFixture(t, []string{"1111", "2222"}, alice)
	ctx := context.Background()

	require.NoError(t, f.uc.RequestCode(ctx, RequestCodeInput{Email: alice}))
	require.NoError(t, f.uc.ResendCode(ctx, ResendCodeInput{Email: alice}))

	_, err := f.uc.VerifyCode(ctx, VerifyCodeInput{Email: alice, OTP: "1111"})
	requireCode(t, err, goerror.CodeInvalidOrExpired)

	_, err = f.uc.VerifyCode(ctx, VerifyCodeInput{Email: alice, OTP: "2222"})
	require.NoError(t, err)
}

func TestVerifyCode_CodeOfAnotherAccountFails(t *testing.T) {
	f := newFixture(t, []string{"1111"}, alice, "b@x.com")
	ctx := context.Background()
	require.NoError(t, f.uc.RequestCode(ctx, RequestCodeInput{Email: alice}))

	_, err := f.uc.VerifyCode(ctx, VerifyCodeInput{Email: "b@x.com", OTP: "1111"})

	requireCode(t, err, goerror.CodeInvalidOrExpired)
}

func TestVerifyCode_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   VerifyCodeInput
	}{
		{"MissingEmail", VerifyCodeInput{OTP: "1234"}},
		{"MissingCode", VerifyCodeInput{Email: alice}},
		{"ThreeDigits", VerifyCodeInput{Email: alice, OTP: "123"}},
		{"Letters", VerifyCodeInput{Email: alice, OTP: "12a4"}},
		{"BadEmail", VerifyCodeInput{Email: "alice", OTP: "1234"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, alice)

			_, err := f.uc.VerifyCode(context.Background(), tt.in)

			requireCode(t, err, goerror.CodeInvalidInput)
		})
	}
}

func TestIssue_DeliveryFailureKeepsCodeAndAttempt(t *testing.T) {
	// Arrange
	f := newFixture(t, []string{"9090"}, alice)
	f.notifier.err = errors.New("smtp: connection refused")
	ctx := context.Background()

	// Act
	err := f.uc.RequestCode(ctx, RequestCodeInput{Email: alice})

	// Assert
	requireCode(t, err, goerror.CodeDeliveryFailed)
	assert.Equal(t, 1, f.store.attemptCount(alice))

	_, err = f.uc.VerifyCode(ctx, VerifyCodeInput{Email: alice, OTP: "9090"})
	require.NoError(t, err)
}

func TestIssue_NotifierIsBounded(t *testing.T) {
	f := newFixture(t, []string{"9090"}, alice)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.uc.RequestCode(ctx, RequestCodeInput{Email: alice})

	require.NoError(t, err, "a cancelled request must not abort delivery of a committed code")
	dl := f.notifier.last().deadline
	require.False(t, dl.IsZero())
	assert.WithinDuration(t, time.Now().Add(10*time.Second), dl, 2*time.Second)
}

func TestIssue_StoreFailure(t *testing.T) {
	f := newFixture(t, []string{"9090"}, alice)
	f.store.failIssue = errors.New("connection reset")

	err := f.uc.RequestCode(context.Background(), RequestCodeInput{Email: alice})

	requireCode(t, err, goerror.CodeInternal)
	assert.Empty(t, f.notifier.sent)
}

func verifiedGrant(t *testing.T, f *fixture, email, code string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.uc.RequestCode(ctx, RequestCodeInput{Email: email}))
	out, err := f.uc.VerifyCode(ctx, VerifyCodeInput{Email: email, OTP: code})
	require.NoError(t, err)
	return out.ResetToken
}

func TestResetCredential_PasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantCode goerror.Code
		wantOK   bool
	}{
		{"NoDigit", "Abcdefgh!", goerror.CodeWeakCredential, false},
		{"NoUpper", "abcdefg1!", goerror.CodeWeakCredential, false},
		{"NoSymbol", "Abcdefg12", goerror.CodeWeakCredential, false},
		{"TooShort", "Ab1!", goerror.CodeWeakCredential, false},
		{"ForeignSymbol", "Abcdefg1?", goerror.CodeWeakCredential, false},
		{"Strong", "Abcdefg1!", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []string{"1212"}, alice)
			token := verifiedGrant(t, f, alice, "1212")

			err := f.uc.ResetCredential(context.Background(), ResetCredentialInput{
				Email:       alice,
				ResetToken:  token,
				NewPassword: tt.password,
			})

			if tt.wantOK {
				require.NoError(t, err)
				return
			}
			gerr := requireCode(t, err, tt.wantCode)
			assert.Contains(t, gerr.Fields(), "new_password")
			assert.Equal(t, "old-hash", f.store.password(alice))
		})
	}
}

func TestResetCredential_WeakPasswordKeepsGrant(t *testing.T) {
	f := newFixture(t, []string{"1212"}, alice)
	token := verifiedGrant(t, f, alice, "1212")
	ctx := context.Background()

	err := f.uc.ResetCredential(ctx, ResetCredentialInput{Email: alice, ResetToken: token, NewPassword: "weak"})
	requireCode(t, err, goerror.CodeWeakCredential)

	err = f.uc.ResetCredential(ctx, ResetCredentialInput{Email: alice, ResetToken: token, NewPassword: "Abcdefg1!"})
	require.NoError(t, err)
}

func TestResetCredential_GrantIsSingleUse(t *testing.T) {
	f := newFixture(t, []string{"1212"}, alice)
	token := verifiedGrant(t, f, alice, "1212")
	ctx := context.Background()

	require.NoError(t, f.uc.ResetCredential(ctx, ResetCredentialInput{Email: alice, ResetToken: token, NewPassword: "Abcdefg1!"}))

	err := f.uc.ResetCredential(ctx, ResetCredentialInput{Email: alice, ResetToken: token, NewPassword: "Other#Pass9"})
	requireCode(t, err, goerror.CodeInvalidOrExpired)
	assert.True(t, hash.NewBcrypt(4, "").Verify(f.store.password(alice), "Abcdefg1!"))
}

func TestResetCredential_GrantBelongsToOneAccount(t *testing.T) {
	f := newFixture(t, []string{"1212"}, alice, "b@x.com")
	token := verifiedGrant(t, f, alice, "1212")
	ctx := context.Background()

	err := f.uc.ResetCredential(ctx, ResetCredentialInput{Email: "b@x.com", ResetToken: token, NewPassword: "Abcdefg1!"})
	requireCode(t, err, goerror.CodeInvalidOrExpired)
	assert.Equal(t, "old-hash", f.store.password("b@x.com"))

	require.NoError(t, f.uc.ResetCredential(ctx, ResetCredentialInput{Email: alice, ResetToken: token, NewPassword: "Abcdefg1!"}))
}

func TestResetCredential_GrantExpires(t *testing.T) {
	f := newFixture(t, []string{"1212"}, alice)
	token := verifiedGrant(t, f, alice, "1212")

	f.clock.Advance(5*time.Minute + time.Second)
	err := f.uc.ResetCredential(context.Background(), ResetCredentialInput{Email: alice, ResetToken: token, NewPassword: "Abcdefg1!"})

	requireCode(t, err, goerror.CodeInvalidOrExpired)
}

func TestResetCredential_WithoutVerificationFails(t *testing.T) {
	f := newFixture(t, nil, alice)

	err := f.uc.ResetCredential(context.Background(), ResetCredentialInput{Email: alice, ResetToken: "forged", NewPassword: "Abcdefg1!"})

	requireCode(t, err, goerror.CodeInvalidOrExpired)
}

func TestResetCredential_MissingFields(t *testing.T) {
	f := newFixture(t, nil, alice)

	err := f.uc.ResetCredential(context.Background(), ResetCredentialInput{Email: alice})

	gerr := requireCode(t, err, goerror.CodeInvalidInput)
	assert.Equal(t, goerror.TypeValidation, gerr.Type())
}

func TestResetCredential_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture(t, []string{"1212"}, alice)
	f.pub.err = errors.New("broker down")
	token := verifiedGrant(t, f, alice, "1212")

	err := f.uc.ResetCredential(context.Background(), ResetCredentialInput{Email: alice, ResetToken: token, NewPassword: "Abcdefg1!"})

	require.NoError(t, err)
}

func TestSweep_RemovesStaleRowsOnly(t *testing.T) {
	f := newFixture(t, []string{"1111", "2222"}, alice)
	ctx := context.Background()

	require.NoError(t, f.uc.RequestCode(ctx, RequestCodeInput{Email: alice}))
	f.clock.Advance(100 * time.Second)
	require.NoError(t, f.uc.ResendCode(ctx, ResendCodeInput{Email: alice}))
	f.clock.Advance(30 * time.Second)

	require.NoError(t, f.uc.Sweep(ctx))

	assert.Equal(t, 1, f.store.attemptCount(alice))
	assert.Len(t, f.store.codes, 1)

	_, err := f.uc.VerifyCode(ctx, VerifyCodeInput{Email: alice, OTP: "2222"})
	require.NoError(t, err)
}
