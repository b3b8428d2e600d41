package helpers

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/go-playground/validator/v10"
)

type contextKey string

const (
	ContextKeyUserID    contextKey = "userID"
	ContextKeyCartOwner contextKey = "cartOwner"
)

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// UserIDFrom returns the logged-in user id, or "" for anonymous requests.
func UserIDFrom(ctx context.Context) string {
	userID, _ := ctx.Value(ContextKeyUserID).(string)
	return userID
}

func WithCartOwner(ctx context.Context, owner models.CartOwner) context.Context {
	return context.WithValue(ctx, ContextKeyCartOwner, owner)
}

func CartOwnerFrom(ctx context.Context) (models.CartOwner, bool) {
	owner, ok := ctx.Value(ContextKeyCartOwner).(models.CartOwner)
	return owner, ok && owner != nil
}

func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMessages := make(map[string]string)
	for _, err := range errs {
		field := lowerFirst(err.Field())
		switch err.Tag() {
		case "required":
			errorMessages[field] = fmt.Sprintf("%s is required.", err.Field())
		case "email":
			errorMessages[field] = fmt.Sprintf("%s must be a valid email address.", err.Field())
		case "gt":
			errorMessages[field] = fmt.Sprintf("%s must be greater than %s.", err.Field(), err.Param())
		case "gte":
			errorMessages[field] = fmt.Sprintf("%s must be at least %s.", err.Field(), err.Param())
		case "min":
			errorMessages[field] = fmt.Sprintf("%s must be at least %s characters.", err.Field(), err.Param())
		default:
			errorMessages[field] = fmt.Sprintf("%s failed %s validation.", err.Field(), err.Tag())
		}
	}
	return errorMessages
}

// ValidationMessage joins FormatValidationErrors into one sentence list,
// ordered by field name.
func ValidationMessage(errs validator.ValidationErrors) string {
	messages := FormatValidationErrors(errs)
	fields := make([]string, 0, len(messages))
	for field := range messages {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, messages[field])
	}
	return strings.Join(parts, " ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// NewValidator reports fields by their json name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}
