package form

import "github.com/EdenOved/formpilot/internal/config"

// Entry is a single value destined for one field.
type Entry struct {
	Role    Role
	Locator string
	Value   string
}

// Data is the per-run set of values, one entry per spec field in spec order.
type Data struct {
	entries []Entry
}

// NewData pairs the caller's values with the fields of spec. Roles without a
// value get an empty string so validation can report them.
func NewData(spec Spec, values map[Role]string) Data {
	entries := make([]Entry, 0, len(spec.fields))
	for _, f := range spec.fields {
		entries = append(entries, Entry{Role: f.Role, Locator: f.Locator, Value: values[f.Role]})
	}
	return Data{entries: entries}
}

// ValuesFromConfig extracts the run values keyed by role.
func ValuesFromConfig(d config.RunData) map[Role]string {
	return map[Role]string{
		RoleName:      d.Name,
		RoleEmail:     d.Email,
		RolePhone:     d.Phone,
		RoleCompany:   d.Company,
		RoleEmployees: d.Employees,
	}
}

// Entries returns a copy of the ordered entries.
func (d Data) Entries() []Entry { return append([]Entry(nil), d.entries...) }

// Value returns the value for a role and whether the role is present.
func (d Data) Value(role Role) (string, bool) {
	for _, e := range d.entries {
		if e.Role == role {
			return e.Value, true
		}
	}
	return "", false
}

// Values maps each locator to the value typed into it.
func (d Data) Values() map[string]string {
	out := make(map[string]string, len(d.entries))
	for _, e := range d.entries {
		out[e.Locator] = e.Value
	}
	return out
}

func (d Data) Len() int { return len(d.entries) }
