package auth

import "errors"

var (
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrOperatorAccessRequired = errors.New("operator access required")
)

// RoleOperator is the only role accepted by the ops API.
const RoleOperator = "operator"
