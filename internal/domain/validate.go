package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

// ValidationError reports bad local input. It is returned before any
// network interaction happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NormalizeDisplayName trims the name and checks its length in characters.
func NormalizeDisplayName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	rule := fmt.Sprintf("required,min=%d,max=%d", MinUsernameLen, MaxUsernameLen)
	if err := check("display name", name, rule); err != nil {
		return "", err
	}
	return name, nil
}

func NormalizeRoomName(raw string) (RoomName, error) {
	name := strings.TrimSpace(raw)
	rule := fmt.Sprintf("required,min=%d,max=%d", MinRoomNameLen, MaxRoomNameLen)
	if err := check("room name", name, rule); err != nil {
		return "", err
	}
	return RoomName(name), nil
}

func NormalizeMessageText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if err := check("message text", text, fmt.Sprintf("required,max=%d", MaxMessageLen)); err != nil {
		return "", err
	}
	return text, nil
}

func ValidateRoomID(id RoomID) error {
	return check("room id", strings.TrimSpace(string(id)), "required")
}

func check(field, value, rule string) error {
	err := validate.Var(value, rule)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: field, Reason: err.Error()}
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Reason: "must not be empty"}
	case "min":
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be at least %s characters", fe.Param())}
	case "max":
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be at most %s characters", fe.Param())}
	default:
		return &ValidationError{Field: field, Reason: fe.Error()}
	}
}
