package records

import (
	"net/url"
	"strings"
)

// Field is the logical name of a searchable record attribute.
type Field string

// Searchable fields, in predicate order.
const (
	FieldBreed      Field = "breed"
	FieldColor      Field = "color"
	FieldAge        Field = "age"
	FieldShedNumber Field = "shedNumber"
	FieldGender     Field = "gender"
	FieldTagNumber  Field = "tagNumber"
)

// SearchFields lists every searchable field in the order predicates are emitted.
var SearchFields = []Field{
	FieldBreed,
	FieldColor,
	FieldAge,
	FieldShedNumber,
	FieldGender,
	FieldTagNumber,
}

// SearchCriteria holds the optional filters of one search request.
// A nil field is absent and produces no predicate; it is not a wildcard.
type SearchCriteria struct {
	Breed      *string
	Color      *string
	Age        *string
	ShedNumber *string
	Gender     *string
	TagNumber  *string
}

// Get returns the value of f and whether it is present.
func (c SearchCriteria) Get(f Field) (string, bool) {
	var p *string
	switch f {
	case FieldBreed:
		p = c.Breed
	case FieldColor:
		p = c.Color
	case FieldAge:
		p = c.Age
	case FieldShedNumber:
		p = c.ShedNumber
	case FieldGender:
		p = c.Gender
	case FieldTagNumber:
		p = c.TagNumber
	}
	if p == nil {
		return "", false
	}
	return *p, true
}

// Set makes f present with value v. Unknown fields are ignored.
func (c *SearchCriteria) Set(f Field, v string) {
	p := &v
	switch f {
	case FieldBreed:
		c.Breed = p
	case FieldColor:
		c.Color = p
	case FieldAge:
		c.Age = p
	case FieldShedNumber:
		c.ShedNumber = p
	case FieldGender:
		c.Gender = p
	case FieldTagNumber:
		c.TagNumber = p
	}
}

// CriteriaFromQuery reads filters from URL query parameters named after the fields.
// Blank form inputs are treated as absent.
func CriteriaFromQuery(q url.Values) SearchCriteria {
	var c SearchCriteria
	for _, f := range SearchFields {
		v := strings.TrimSpace(q.Get(string(f)))
		if v == "" {
			continue
		}
		c.Set(f, v)
	}
	return c
}
