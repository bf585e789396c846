package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidOrganizationName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"ascii with underscore", "HairStudio_1", true},
		{"hangul", "헤어살롱", true},
		{"mixed", "네일_Nail2", true},
		{"space", "Hair Studio", false},
		{"hyphen", "Hair-Studio", false},
		{"punctuation", "Hair!", false},
		{"leading space", " HairStudio", false},
		{"empty", "", false},
		{"hangul jamo only", "ㅎㅎ", false},
		{"cjk ideograph", "美容室", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidOrganizationName(tt.input))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"+821012345678", "+821012345678"},
		{"010-1234-5678", "+821012345678"},
		{"010 1234 5678", "+821012345678"},
		{"821012345678", "+821012345678"},
		{"+1 (415) 555-0100", "+14155550100"},
		{"  ", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), "input %q", tt.in)
	}
}

func TestFormatKoreanPhone(t *testing.T) {
	assert.Equal(t, "010-1234-5678", FormatKoreanPhone("+821012345678"))
	assert.Equal(t, "021-234-5678", FormatKoreanPhone("+82212345678"))
	assert.Equal(t, "+14155550100", FormatKoreanPhone("+14155550100"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "owner1@example.com", NormalizeEmail("  Owner1@Example.COM "))
	assert.True(t, LooksLikeEmail("owner1@example.com"))
	assert.False(t, LooksLikeEmail("owner1example.com"))
	assert.False(t, LooksLikeEmail("owner1@"))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!!", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret!!"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("", "s3cret!!"))

	_, err = HashPassword("123", 4)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestAccessToken(t *testing.T) {
	tok, err := NewAccessToken("secret", "id-1", "OWNER", "org-1", 5)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), tok.Exp, time.Minute)

	claims, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "id-1", claims.Subject)
	assert.Equal(t, "OWNER", claims.Role)
	assert.Equal(t, "org-1", claims.OrganizationID)

	_, err = ParseAccessToken("other", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAccessToken("secret", "id-1", "OWNER", "", -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("secret", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashToken(t *testing.T) {
	raw, err := RandomHex(16)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.Len(t, HashToken(raw), 64)
	assert.Equal(t, HashToken(raw), HashToken(raw))
}
