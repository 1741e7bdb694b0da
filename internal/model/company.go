package model

// Reference table column names.
const (
	ColumnSymbol   = "Symbol"
	ColumnSecurity = "Security"
	ColumnSector   = "GICS Sector"
)

// Field is one descriptive attribute of a company.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Company is one row of the reference table, keyed by Symbol.
type Company struct {
	Symbol string
	Fields []Field
}

// Get returns the value of the named field.
func (c Company) Get(name string) (string, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// GetAny returns the first present field among names. Upstream renamed some
// columns over time ("Date first added" became "Date added").
func (c Company) GetAny(names ...string) string {
	for _, n := range names {
		if v, ok := c.Get(n); ok {
			return v
		}
	}
	return ""
}

// Name returns the company name.
func (c Company) Name() string {
	v, _ := c.Get(ColumnSecurity)
	return v
}

// Sector returns the GICS sector.
func (c Company) Sector() string {
	v, _ := c.Get(ColumnSector)
	return v
}
