package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/suteetoe/merchant-service/internal/model"
)

const (
	FieldName  = "name"
	FieldEmail = "email"
)

// mailto address syntax: local part of atext and dots, hostname labels of up to 63 chars
var mailtoPattern = regexp.MustCompile(
	"^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$",
)

// New returns a validator with the "mailto" rule registered
func New() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("mailto", func(fl validator.FieldLevel) bool {
		return mailtoPattern.MatchString(fl.Field().String())
	})
	return v
}

// EmailChecker answers whether an email is already used by another merchant.
// Implementations compare case-insensitively.
type EmailChecker interface {
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
}

// MerchantValidator runs the merchant field checks
type MerchantValidator struct {
	validate *validator.Validate
	emails   EmailChecker
}

func NewMerchantValidator(emails EmailChecker) *MerchantValidator {
	return &MerchantValidator{
		validate: New(),
		emails:   emails,
	}
}

// Validate runs every check against m and returns Errors when any fails.
// A non-Errors error means the uniqueness lookup itself failed.
// m is expected to be normalized already.
func (v *MerchantValidator) Validate(ctx context.Context, m *model.Merchant) error {
	var errs Errors

	if fe := CheckName(m.Name); fe != nil {
		errs = append(errs, *fe)
	}

	if fe := CheckEmailPresence(m.Email); fe != nil {
		errs = append(errs, *fe)
	} else if fe := v.CheckEmailFormat(m.Email); fe != nil {
		errs = append(errs, *fe)
	} else {
		fe, err := v.CheckEmailUnique(ctx, m.Email, m.ID)
		if err != nil {
			return err
		}
		if fe != nil {
			errs = append(errs, *fe)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func CheckName(name string) *FieldError {
	if strings.TrimSpace(name) == "" {
		return &FieldError{Field: FieldName, Kind: MissingField, Message: MsgBlank}
	}
	return nil
}

func CheckEmailPresence(email string) *FieldError {
	if strings.TrimSpace(email) == "" {
		return &FieldError{Field: FieldEmail, Kind: MissingField, Message: MsgBlank}
	}
	return nil
}

func (v *MerchantValidator) CheckEmailFormat(email string) *FieldError {
	if err := v.validate.Var(email, "mailto"); err != nil {
		return &FieldError{Field: FieldEmail, Kind: InvalidFormat, Message: MsgInvalid}
	}
	return nil
}

// CheckEmailUnique looks email up among merchants other than excludeID.
func (v *MerchantValidator) CheckEmailUnique(ctx context.Context, email string, excludeID uint) (*FieldError, error) {
	taken, err := v.emails.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if taken {
		fe := Duplicate()[0]
		return &fe, nil
	}
	return nil, nil
}
