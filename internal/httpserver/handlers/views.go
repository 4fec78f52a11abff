package handlers

import "ssohub/internal/models"

// employeeView is the externally visible shape of an employee. The numeric
// primary key never leaves the service.
func employeeView(e *models.Employee) map[string]any {
	return map[string]any{
		"uuid":        e.UUID,
		"first_name":  e.FirstName,
		"middle_name": e.MiddleName,
		"last_name":   e.LastName,
		"suffix":      e.Suffix,
		"full_name":   e.FullName(),
		"position":    e.Position,
		"email":       e.Email,
		"is_active":   e.IsActive,
		"created_at":  e.CreatedAt,
	}
}

func applicationView(a *models.Application) map[string]any {
	return map[string]any{
		"uuid":                  a.UUID,
		"name":                  a.Name,
		"description":           a.Description,
		"client_id":             a.ClientID,
		"redirect_uris":         a.RedirectURIs,
		"rate_limit_per_minute": a.RateLimitPerMinute,
		"is_active":             a.IsActive,
		"created_at":            a.CreatedAt,
	}
}
