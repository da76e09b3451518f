package form

import (
	"fmt"
	"strings"
)

// ValidationResult lists one message per failing field, in spec order.
// An empty result means the data may be submitted.
type ValidationResult struct {
	Messages []string
}

// Valid reports whether no rule failed.
func (r ValidationResult) Valid() bool { return len(r.Messages) == 0 }

func (r ValidationResult) String() string {
	if r.Valid() {
		return "valid"
	}
	return strings.Join(r.Messages, "; ")
}

// Validate checks every required field of spec against data. It never
// stops at the first failure and never panics.
func Validate(data Data, spec Spec) ValidationResult {
	var res ValidationResult
	for _, f := range spec.fields {
		if !f.Role.Required() {
			continue
		}
		value, ok := data.Value(f.Role)
		if !ok {
			res.Messages = append(res.Messages, fmt.Sprintf("%s is missing", f.Role))
			continue
		}
		if msg := checkRole(f.Role, value); msg != "" {
			res.Messages = append(res.Messages, msg)
		}
	}
	return res
}

func checkRole(role Role, value string) string {
	switch role {
	case RoleEmail:
		if !strings.Contains(value, "@") {
			return fmt.Sprintf("email %q must contain '@'", value)
		}
	case RoleName, RolePhone, RoleCompany:
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("%s must not be empty", role)
		}
	}
	return ""
}
