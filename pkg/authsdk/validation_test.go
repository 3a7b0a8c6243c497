package authsdk_test

import (
	"strings"
	"testing"

	"github.com/bni/bni/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     authsdk.RegisterRequest
		invalid []string
	}{
		{"valid with email", authsdk.RegisterRequest{Username: "alice", EmailAddress: "a@x.com", Password: "pw1"}, nil},
		{"valid without email", authsdk.RegisterRequest{Username: "alice", Password: "pw1"}, nil},
		{"missing username", authsdk.RegisterRequest{Password: "pw1"}, []string{"username"}},
		{"missing password", authsdk.RegisterRequest{Username: "alice"}, []string{"password"}},
		{"bad email", authsdk.RegisterRequest{Username: "alice", EmailAddress: "nope", Password: "pw1"}, []string{"email_address"}},
		{"password too long", authsdk.RegisterRequest{Username: "alice", Password: strings.Repeat("x", 73)}, []string{"password"}},
		{"everything missing", authsdk.RegisterRequest{}, []string{"username", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := authsdk.FieldErrors(tt.req.Validate())
			if tt.invalid == nil {
				require.Empty(t, fields)
				return
			}
			require.Len(t, fields, len(tt.invalid))
			for _, f := range tt.invalid {
				require.Contains(t, fields, f)
			}
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	require.NoError(t, authsdk.LoginRequest{Username: "alice", Password: "pw"}.Validate())
	// A malformed email is a credential mismatch, not a validation failure.
	require.NoError(t, authsdk.LoginRequest{Username: "alice", EmailAddress: "nope", Password: "pw"}.Validate())

	fields := authsdk.FieldErrors(authsdk.LoginRequest{}.Validate())
	require.Contains(t, fields, "username")
	require.Contains(t, fields, "password")
}

func TestProfileUpdateRequest_Validate(t *testing.T) {
	require.NoError(t, authsdk.ProfileUpdateRequest{FirstName: "Ann", DateOfBirth: "1990-04-01"}.Validate())
	require.NoError(t, authsdk.ProfileUpdateRequest{}.Validate())

	fields := authsdk.FieldErrors(authsdk.ProfileUpdateRequest{DateOfBirth: "01/04/1990"}.Validate())
	require.Equal(t, map[string]string{"date_of_birth": "must be a date in YYYY-MM-DD format"}, fields)

	fields = authsdk.FieldErrors(authsdk.ProfileUpdateRequest{DateOfBirth: "1990-02-30"}.Validate())
	require.Contains(t, fields, "date_of_birth")
}

func TestFieldErrors_Nil(t *testing.T) {
	require.Nil(t, authsdk.FieldErrors(nil))
}
