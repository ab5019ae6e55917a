package employee

import "context"

type EmployeeRepository interface {
	// GetByCodes loads the employees with the given codes together with all
	// their employments (deleted ones included). Unknown codes are absent
	// from the result.
	GetByCodes(ctx context.Context, codes []string) (map[string]Employee, error)
}
