package statement

// Field is a named value captured from a statement
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is one transaction. Fields keep the order of the vendor grammar.
type Record []Field

// Get returns the value of a field
func (r Record) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing field
func (r Record) Set(name, value string) {
	for i := range r {
		if r[i].Name == name {
			r[i].Value = value
			return
		}
	}
}

// Names returns the field names in order
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Values returns the field values in order
func (r Record) Values() []string {
	values := make([]string, len(r))
	for i, f := range r {
		values[i] = f.Value
	}
	return values
}

// Map returns the record as a map, losing the field order
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}
