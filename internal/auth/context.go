package auth

import (
	"context"

	"ssohub/internal/models"
)

type ctxKey int

const (
	employeeKey ctxKey = iota
	applicationKey
	bearerKey
)

// WithEmployee stores the authenticated employee for the request lifetime.
func WithEmployee(ctx context.Context, e *models.Employee) context.Context {
	return context.WithValue(ctx, employeeKey, e)
}

func EmployeeFromContext(ctx context.Context) (*models.Employee, bool) {
	e, ok := ctx.Value(employeeKey).(*models.Employee)
	return e, ok && e != nil
}

// WithApplication stores the authenticated application principal.
func WithApplication(ctx context.Context, a *models.Application) context.Context {
	return context.WithValue(ctx, applicationKey, a)
}

func ApplicationFromContext(ctx context.Context) (*models.Application, bool) {
	a, ok := ctx.Value(applicationKey).(*models.Application)
	return a, ok && a != nil
}

// WithBearer stores the raw bearer value so session handlers can locate the
// matching token row.
func WithBearer(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, bearerKey, raw)
}

func BearerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(bearerKey).(string); ok {
		return v
	}
	return ""
}
