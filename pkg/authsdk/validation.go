package authsdk

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	// MaxPasswordBytes matches the hasher's input limit.
	MaxPasswordBytes = 72

	// DateLayout is the wire format of date_of_birth.
	DateLayout = "2006-01-02"
)

// Validate checks the registration body. Email is optional but must be
// well formed when present.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.EmailAddress, validation.Length(0, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(maxBytes(MaxPasswordBytes))),
	)
}

// Validate checks the login body. Email format is not checked here: a
// mismatch is reported as bad credentials, not bad input.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.By(maxBytes(MaxPasswordBytes))),
	)
}

func (r ProfileUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.Length(0, 100)),
		validation.Field(&r.PlaceOfBirth, validation.Length(0, 100)),
		validation.Field(&r.DateOfBirth, validation.By(isDate)),
	)
}

// FieldErrors flattens a Validate error into field -> message. Errors that
// are not per-field land under "_".
func FieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(errs))
	for field, e := range errs {
		if e != nil {
			out[field] = e.Error()
		}
	}
	return out
}

func maxBytes(n int) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if len(s) > n {
			return fmt.Errorf("must be at most %d bytes", n)
		}
		return nil
	}
}

func isDate(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return errors.New("must be a date in YYYY-MM-DD format")
	}
	return nil
}
