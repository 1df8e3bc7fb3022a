package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyReviewerToken(t *testing.T) {
	secret := "testsecret123456789012345678901234"
	raw, err := GenerateReviewerToken(secret, "lawyer-1", "Ada", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	ver, err := NewHS256Verifier(secret)
	require.NoError(t, err)

	tok, err := ver.Verify(context.Background(), raw)
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "lawyer-1", claims["sub"])
	require.Equal(t, "reviewer", claims["role"])
}

func TestVerify_RejectsBadSignatureAndExpiry(t *testing.T) {
	raw, err := GenerateReviewerToken("secret-a", "lawyer-1", "Ada", time.Minute)
	require.NoError(t, err)

	ver, err := NewHS256Verifier("secret-b")
	require.NoError(t, err)
	_, err = ver.Verify(context.Background(), raw)
	require.Error(t, err)

	expired, err := GenerateReviewerToken("secret-a", "lawyer-1", "Ada", -time.Minute)
	require.NoError(t, err)
	verA, err := NewHS256Verifier("secret-a")
	require.NoError(t, err)
	_, err = verA.Verify(context.Background(), expired)
	require.Error(t, err)
}

func TestNewHS256Verifier_EmptySecret(t *testing.T) {
	_, err := NewHS256Verifier("")
	require.Error(t, err)
}
