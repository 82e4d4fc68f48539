package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret-do-not-use")
	os.Exit(m.Run())
}

func TestGenerateVerificationCode(t *testing.T) {
	code := GenerateVerificationCode(6)
	require.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "non-digit %q in code", r)
	}

	// non-positive lengths fall back to six digits
	assert.Len(t, GenerateVerificationCode(0), 6)
	assert.Len(t, GenerateVerificationCode(-1), 6)
}

func TestVerifyAndConsumeCode(t *testing.T) {
	const phone = "13700000001"
	require.NoError(t, SaveCode(phone, "123456", time.Minute))

	// a wrong guess fails and leaves the code usable
	assert.False(t, VerifyAndConsumeCode(phone, "654321"))
	assert.True(t, VerifyAndConsumeCode(phone, "123456"))

	// consumed on success: the same code never logs in twice
	assert.False(t, VerifyAndConsumeCode(phone, "123456"))
}

func TestVerifyCodeExpires(t *testing.T) {
	const phone = "13700000002"
	require.NoError(t, SaveCode(phone, "111222", 10*time.Millisecond))
	time.Sleep(50 * time.Millisecond)
	assert.False(t, VerifyAndConsumeCode(phone, "111222"))
}

func TestSaveCodeOverwrites(t *testing.T) {
	const phone = "13700000003"
	require.NoError(t, SaveCode(phone, "111111", time.Minute))
	require.NoError(t, SaveCode(phone, "222222", time.Minute))

	assert.False(t, VerifyAndConsumeCode(phone, "111111"))
	assert.True(t, VerifyAndConsumeCode(phone, "222222"))
}

func TestSendCooldown(t *testing.T) {
	const phone = "13700000004"
	assert.True(t, SendCooldownTrySet(phone, 50*time.Millisecond))
	assert.False(t, SendCooldownTrySet(phone, 50*time.Millisecond))

	time.Sleep(80 * time.Millisecond)
	assert.True(t, SendCooldownTrySet(phone, 50*time.Millisecond))
}
