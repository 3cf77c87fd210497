package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the suite fast; the format is the same
var testArgon2Params = Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestArgon2HashService_HashAndVerify(t *testing.T) {
	svc := NewArgon2HashService(testArgon2Params)

	hash, err := svc.Hash("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"), hash)

	ok, err := svc.Verify("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify("wrong horse battery", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2HashService_UniqueSalts(t *testing.T) {
	svc := NewArgon2HashService(testArgon2Params)

	first, err := svc.Hash("same-password")
	require.NoError(t, err)
	second, err := svc.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestArgon2HashService_VerifiesHashesFromOtherSettings(t *testing.T) {
	hash, err := NewArgon2HashService(Argon2Params{Time: 2, Memory: 2048, Threads: 2, KeyLen: 16, SaltLen: 8}).Hash("rotate-me")
	require.NoError(t, err)

	ok, err := NewArgon2HashService(testArgon2Params).Verify("rotate-me", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2HashService_DefaultParams(t *testing.T) {
	assert.Equal(t, DefaultArgon2Params, NewArgon2HashService(Argon2Params{}).params)
}

func TestArgon2HashService_VerifyMalformed(t *testing.T) {
	svc := NewArgon2HashService(testArgon2Params)
	tests := map[string]string{
		"not phc":       "not-a-valid-hash",
		"bcrypt":        "$2a$10$abcdefghijklmnopqrstuu",
		"wrong version": "$argon2id$v=16$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"bad params":    "$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"bad salt":      "$argon2id$v=19$m=1024,t=1,p=1$***$a2V5",
		"empty key":     "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$",
	}
	for name, hash := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify("password", hash)
			assert.ErrorIs(t, err, errMalformedHash)
		})
	}
}
