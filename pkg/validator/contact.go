package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var (
	// ErrEmptyContact indicates no contact detail was supplied
	ErrEmptyContact = errors.New("contact cannot be empty")

	// ErrInvalidEmail indicates a malformed email address
	ErrInvalidEmail = errors.New("email address is not valid")

	// ErrInvalidPhone indicates a malformed phone number
	ErrInvalidPhone = errors.New("phone number must contain 7 to 15 digits, optionally prefixed with +")
)

// ContactKind identifies how a guest can be reached
type ContactKind string

const (
	ContactEmail ContactKind = "email"
	ContactPhone ContactKind = "phone"
)

var (
	phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
	phoneDigits     = regexp.MustCompile(`^\+?\d{7,15}$`)
)

// ContactValidator validates guest contact details.
// A contact is either an email address or a phone number.
type ContactValidator struct {
	// CountryCode is applied to local numbers written with a leading 0 (e.g. "94").
	// Empty leaves local numbers untouched.
	CountryCode string
}

// NewContactValidator creates a validator that rewrites local phone numbers
// into international form using countryCode.
func NewContactValidator(countryCode string) *ContactValidator {
	return &ContactValidator{CountryCode: strings.TrimPrefix(strings.TrimSpace(countryCode), "+")}
}

// Validate checks contact and returns its normalized form and kind
func (v *ContactValidator) Validate(contact string) (string, ContactKind, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return "", "", ErrEmptyContact
	}

	if strings.Contains(contact, "@") {
		email, err := v.NormalizeEmail(contact)
		if err != nil {
			return "", "", err
		}
		return email, ContactEmail, nil
	}

	phone, err := v.NormalizePhone(contact)
	if err != nil {
		return "", "", err
	}
	return phone, ContactPhone, nil
}

// NormalizeEmail accepts a bare address (no display name) and lowercases its domain
func (v *ContactValidator) NormalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", ErrInvalidEmail
	}

	at := strings.LastIndex(addr.Address, "@")
	local, domain := addr.Address[:at], addr.Address[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", ErrInvalidEmail
	}
	return local + "@" + strings.ToLower(domain), nil
}

// NormalizePhone strips separators and applies the country code to local numbers.
// Accepts: +94 77 123 4567, 077-123-4567, (077) 123 4567
func (v *ContactValidator) NormalizePhone(phone string) (string, error) {
	sanitized := phoneSeparators.Replace(phone)
	if strings.HasPrefix(sanitized, "00") {
		sanitized = "+" + sanitized[2:]
	}
	if !phoneDigits.MatchString(sanitized) {
		return "", ErrInvalidPhone
	}

	if v.CountryCode != "" && strings.HasPrefix(sanitized, "0") {
		sanitized = "+" + v.CountryCode + sanitized[1:]
		if !phoneDigits.MatchString(sanitized) {
			return "", ErrInvalidPhone
		}
	}
	return sanitized, nil
}

// IsValid reports whether contact is a usable email or phone number
func (v *ContactValidator) IsValid(contact string) bool {
	_, _, err := v.Validate(contact)
	return err == nil
}
