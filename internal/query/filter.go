package query

import (
	"strconv"
	"strings"
)

// Filter is a conjunction of clauses.
type Filter struct {
	Clauses []Clause
}

// Clause is one AND-ed term of a Filter: Equals, Range or AnyOf.
type Clause interface {
	String() string
	clause()
}

// Equals matches documents whose Field equals Value exactly.
type Equals struct {
	Field string
	Value string
}

// Op is a numeric comparison operator.
type Op string

// Comparison operators.
const (
	OpGreaterOrEqual Op = ">="
	OpLessOrEqual    Op = "<="
)

// Range is an inclusive one-sided numeric bound.
type Range struct {
	Field string
	Op    Op
	Value int
}

// AnyOf matches documents whose Field equals at least one of Values.
type AnyOf struct {
	Field  string
	Values []string
}

func (Equals) clause() {}
func (Range) clause()  {}
func (AnyOf) clause()  {}

func (c Equals) String() string {
	return c.Field + " = " + strconv.Quote(c.Value)
}

func (c Range) String() string {
	return c.Field + " " + string(c.Op) + " " + strconv.Itoa(c.Value)
}

func (c AnyOf) String() string {
	parts := make([]string, len(c.Values))
	for i, v := range c.Values {
		parts[i] = Equals{Field: c.Field, Value: v}.String()
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// String renders the filter in the index's expression syntax, e.g.
// `language = "en" AND (genreSlugs = "scifi" OR genreSlugs = "noir")`.
// A nil or empty filter renders as "".
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	parts := make([]string, len(f.Clauses))
	for i, c := range f.Clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

// Fields lists the attributes the filter constrains, in clause order.
func (f *Filter) Fields() []string {
	if f == nil {
		return nil
	}
	fields := make([]string, 0, len(f.Clauses))
	for _, c := range f.Clauses {
		switch c := c.(type) {
		case Equals:
			fields = append(fields, c.Field)
		case Range:
			fields = append(fields, c.Field)
		case AnyOf:
			fields = append(fields, c.Field)
		}
	}
	return fields
}
