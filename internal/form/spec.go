// Package form describes the single web form formpilot drives and the values
// submitted into it.
package form

import (
	"github.com/EdenOved/formpilot/internal/config"
)

// Role identifies what a field holds. Validation rules are keyed by role.
type Role string

const (
	RoleName      Role = "name"
	RoleEmail     Role = "email"
	RolePhone     Role = "phone"
	RoleCompany   Role = "company"
	RoleEmployees Role = "employees"
)

// RequiredRoles are validated before anything is typed into the page, in this order.
var RequiredRoles = []Role{RoleName, RoleEmail, RolePhone, RoleCompany}

// Required reports whether the role takes part in validation.
func (r Role) Required() bool {
	for _, req := range RequiredRoles {
		if r == req {
			return true
		}
	}
	return false
}

// Selectable reports whether the role is a select control rather than a text input.
func (r Role) Selectable() bool {
	return r == RoleEmployees
}

// Field binds a role to the CSS selector that locates its input.
type Field struct {
	Role    Role
	Locator string
}

// Spec is the immutable description of the target form.
type Spec struct {
	url          string
	fields       []Field
	submit       string
	successURL   string
	successTexts []string
}

// NewSpec builds a Spec. The field order is the fill order.
func NewSpec(url string, fields []Field, submit, successURL string, successTexts []string) Spec {
	return Spec{
		url:          url,
		fields:       append([]Field(nil), fields...),
		submit:       submit,
		successURL:   successURL,
		successTexts: append([]string(nil), successTexts...),
	}
}

// SpecFromConfig builds the Spec from the form section of the configuration.
// The employees field is included only when it has a locator.
func SpecFromConfig(cfg config.FormConfig) Spec {
	fields := []Field{
		{Role: RoleName, Locator: cfg.Fields.Name},
		{Role: RoleEmail, Locator: cfg.Fields.Email},
		{Role: RolePhone, Locator: cfg.Fields.Phone},
		{Role: RoleCompany, Locator: cfg.Fields.Company},
	}
	if cfg.Fields.Employees != "" {
		fields = append(fields, Field{Role: RoleEmployees, Locator: cfg.Fields.Employees})
	}
	return NewSpec(cfg.URL, fields, cfg.Submit, cfg.Success.URLFragment, cfg.Success.TextFragments)
}

func (s Spec) URL() string { return s.url }

// Fields returns a copy of the ordered field list.
func (s Spec) Fields() []Field { return append([]Field(nil), s.fields...) }

// Locators returns the field locators in fill order.
func (s Spec) Locators() []string {
	out := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, f.Locator)
	}
	return out
}

// RequiredLocators is every element that must render before anything is
// typed: the field locators in fill order, then the submit control.
func (s Spec) RequiredLocators() []string {
	return append(s.Locators(), s.submit)
}

// Field looks up the field bound to a role.
func (s Spec) Field(role Role) (Field, bool) {
	for _, f := range s.fields {
		if f.Role == role {
			return f, true
		}
	}
	return Field{}, false
}

func (s Spec) SubmitLocator() string { return s.submit }

func (s Spec) SuccessURLFragment() string { return s.successURL }

// SuccessTextFragments returns a copy of the fragments that must all be visible.
func (s Spec) SuccessTextFragments() []string { return append([]string(nil), s.successTexts...) }
