package auth_test

import (
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-portal-auth"
)

func validUserRequest() auth.RegistrationRequest {
	return auth.RegistrationRequest{
		FullName: "A B",
		Email:    "a@b.com",
		Phone:    "9876543210",
		Password: "secret1",
		Skills:   "x",
		Bio:      "y",
	}
}

func requireValidationField(t *testing.T, err error, field, message string) {
	t.Helper()
	require.Error(t, err)
	got, ok := auth.ValidationField(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	assert.Equal(t, field, got)
	if message != "" {
		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, message, richErr.Message)
	}
}

func TestValidate_UserAcceptsValidRequest(t *testing.T) {
	assert.NoError(t, auth.Validate(auth.UserPolicy(0), validUserRequest()))

	req := validUserRequest()
	req.FullName = ""
	req.FirstName = "A"
	req.LastName = "B"
	assert.NoError(t, auth.Validate(auth.UserPolicy(0), req))
}

func TestValidate_UserMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *auth.RegistrationRequest)
		field   string
		message string
	}{
		{"full name", func(r *auth.RegistrationRequest) { r.FullName = "" }, "fullName", "Full name is required."},
		{"blank full name", func(r *auth.RegistrationRequest) { r.FullName = "   " }, "fullName", "Full name is required."},
		{"first name with last name only", func(r *auth.RegistrationRequest) { r.FullName = ""; r.LastName = "B" }, "firstName", "First name is required."},
		{"last name with first name only", func(r *auth.RegistrationRequest) { r.FullName = ""; r.FirstName = "A" }, "lastName", "Last name is required."},
		{"email", func(r *auth.RegistrationRequest) { r.Email = "" }, "email", "Email is required."},
		{"password", func(r *auth.RegistrationRequest) { r.Password = "" }, "password", "Password is required."},
		{"phone", func(r *auth.RegistrationRequest) { r.Phone = "" }, "phone", "Phone is required."},
		{"skills", func(r *auth.RegistrationRequest) { r.Skills = " " }, "skills", "Skills are required."},
		{"bio", func(r *auth.RegistrationRequest) { r.Bio = "" }, "bio", "Bio is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validUserRequest()
			tt.mutate(&req)
			requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), tt.field, tt.message)
		})
	}
}

func TestValidate_FirstFailureWins(t *testing.T) {
	req := auth.RegistrationRequest{Email: "bad", Password: "1"}
	requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), "fullName", "")

	req = validUserRequest()
	req.Email = "not-an-email"
	req.Password = "123"
	req.Phone = "123"
	requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), "email", "Invalid email format.")

	req.Email = "a@b.com"
	requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), "password", "Password must be at least 6 characters.")

	req.Password = "secret1"
	requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), "phone", "Invalid phone number.")

	// presence checks run before any shape check
	req = validUserRequest()
	req.Email = "bad"
	req.Bio = ""
	requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), "bio", "")
}

func TestValidate_ProfilePresenceBeforeEmailShape(t *testing.T) {
	tests := []struct {
		field   string
		clear   func(*auth.RegistrationRequest)
		message string
	}{
		{"phone", func(r *auth.RegistrationRequest) { r.Phone = " " }, "Phone is required."},
		{"skills", func(r *auth.RegistrationRequest) { r.Skills = "" }, "Skills are required."},
		{"bio", func(r *auth.RegistrationRequest) { r.Bio = "\t" }, "Bio is required."},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			req := validUserRequest()
			req.Email = "not-an-email"
			req.Password = "123"
			tt.clear(&req)
			requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), tt.field, tt.message)
		})
	}

	// skills is checked ahead of bio
	req := validUserRequest()
	req.Email = "not-an-email"
	req.Skills = ""
	req.Bio = ""
	requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), "skills", "Skills are required.")
}

func TestValidate_EmailShape(t *testing.T) {
	invalid := []string{"plain", "a@b", "@b.com", "a@.com", "a b@c.com", "a@b c.com", "a@@b.com"}
	for _, email := range invalid {
		req := validUserRequest()
		req.Email = email
		requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), "email", "Invalid email format.")

		admin := auth.RegistrationRequest{Email: email, Password: "x"}
		requireValidationField(t, auth.Validate(auth.AdminPolicy(), admin), "email", "Invalid email format.")
	}

	valid := []string{"a@b.com", "A.B+tag@Example.CO.uk", "x@y.z"}
	for _, email := range valid {
		req := validUserRequest()
		req.Email = email
		assert.NoError(t, auth.Validate(auth.UserPolicy(0), req), email)
	}
}

func TestValidate_PasswordLength(t *testing.T) {
	for _, pw := range []string{"a", "12345", " 1234"} {
		req := validUserRequest()
		req.Password = pw
		requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), "password", "Password must be at least 6 characters.")
	}

	req := validUserRequest()
	req.Password = "      "
	requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), "password", "Password is required.")

	// length counts surrounding spaces
	req.Password = " 12345"
	assert.NoError(t, auth.Validate(auth.UserPolicy(0), req))

	req.Password = "123456"
	assert.NoError(t, auth.Validate(auth.UserPolicy(0), req))

	// multi byte characters count once
	req.Password = strings.Repeat("é", 6)
	assert.NoError(t, auth.Validate(auth.UserPolicy(0), req))
}

func TestValidate_PhoneShape(t *testing.T) {
	for _, phone := range []string{"5876543210", "987654321", "98765432100", "98765abcde", "+919876543210"} {
		req := validUserRequest()
		req.Phone = phone
		requireValidationField(t, auth.Validate(auth.UserPolicy(0), req), "phone", "Invalid phone number.")
	}
	for _, phone := range []string{"6000000000", "7123456789", "9999999999"} {
		req := validUserRequest()
		req.Phone = phone
		assert.NoError(t, auth.Validate(auth.UserPolicy(0), req), phone)
	}
}

func TestValidate_AdminRules(t *testing.T) {
	policy := auth.AdminPolicy()

	assert.NoError(t, auth.Validate(policy, auth.RegistrationRequest{Email: "root@b.com", Password: "x"}))

	requireValidationField(t, auth.Validate(policy, auth.RegistrationRequest{Password: "x"}), "email", "Email is required.")
	requireValidationField(t, auth.Validate(policy, auth.RegistrationRequest{Email: "root@b.com"}), "password", "Password is required.")
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+919876543210", auth.NormalizePhone("9876543210", "IN"))
	assert.Equal(t, "+919876543210", auth.NormalizePhone(" 98765 43210 ", ""))
	assert.Equal(t, "", auth.NormalizePhone("", "IN"))
	assert.Equal(t, "", auth.NormalizePhone("abc", "IN"))
}
