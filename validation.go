package auth

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

var (
	emailShape  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	mobileShape = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

// DefaultPhoneRegion is used to normalise mobile numbers to E.164
var DefaultPhoneRegion = "IN"

type fieldCheck struct {
	field string
	value string
	rules []validation.Rule
	// raw skips trimming, password length counts every character
	raw bool
}

// Validate runs the policy rules against a registration request. Checks run
// in a fixed order and the first failure is returned.
func Validate(policy Policy, req RegistrationRequest) error {
	for _, check := range registrationChecks(policy, req) {
		value := check.value
		if !check.raw {
			value = strings.TrimSpace(value)
		}
		if err := validation.Validate(value, check.rules...); err != nil {
			return NewValidationError(check.field, err.Error())
		}
	}
	return nil
}

func registrationChecks(policy Policy, req RegistrationRequest) []fieldCheck {
	checks := make([]fieldCheck, 0, 10)

	if policy.RequireProfile {
		checks = append(checks, nameChecks(req)...)
	}

	checks = append(checks,
		requiredCheck("email", req.Email, "Email is required."),
		requiredCheck("password", req.Password, "Password is required."),
	)

	if policy.RequireProfile {
		checks = append(checks,
			requiredCheck("phone", req.Phone, "Phone is required."),
			requiredCheck("skills", req.Skills, "Skills are required."),
			requiredCheck("bio", req.Bio, "Bio is required."),
		)
	}

	checks = append(checks, fieldCheck{
		field: "email",
		value: req.Email,
		rules: []validation.Rule{validation.Match(emailShape).Error("Invalid email format.")},
	})

	if policy.MinPasswordLength > 0 {
		checks = append(checks, fieldCheck{
			field: "password",
			value: req.Password,
			raw:   true,
			rules: []validation.Rule{
				validation.RuneLength(policy.MinPasswordLength, 0).
					Error(fmt.Sprintf("Password must be at least %d characters.", policy.MinPasswordLength)),
			},
		})
	}

	if policy.ValidatePhone {
		checks = append(checks, fieldCheck{
			field: "phone",
			value: req.Phone,
			rules: []validation.Rule{validation.Match(mobileShape).Error("Invalid phone number.")},
		})
	}

	return checks
}

func nameChecks(req RegistrationRequest) []fieldCheck {
	if isBlank(req.FirstName) && isBlank(req.LastName) {
		return []fieldCheck{requiredCheck("fullName", req.FullName, "Full name is required.")}
	}
	return []fieldCheck{
		requiredCheck("firstName", req.FirstName, "First name is required."),
		requiredCheck("lastName", req.LastName, "Last name is required."),
	}
}

func requiredCheck(field, value, message string) fieldCheck {
	return fieldCheck{
		field: field,
		value: value,
		rules: []validation.Rule{validation.Required.Error(message)},
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// NormalizePhone formats a phone number as E.164, empty when it does not parse
func NormalizePhone(phone, region string) string {
	if isBlank(phone) {
		return ""
	}
	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
