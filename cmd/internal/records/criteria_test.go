package records

import (
	"net/url"
	"testing"
)

func TestCriteriaFromQuery_SkipsBlankAndUnknown(t *testing.T) {
	t.Parallel()

	q := url.Values{}
	q.Set("breed", "  Jersey ")
	q.Set("color", "   ")
	q.Set("age", "4")
	q.Set("owner", "someone")

	c := CriteriaFromQuery(q)

	if v, ok := c.Get(FieldBreed); !ok || v != "Jersey" {
		t.Fatalf("breed=%q,%v", v, ok)
	}
	if _, ok := c.Get(FieldColor); ok {
		t.Fatalf("blank color must be absent")
	}
	if v, ok := c.Get(FieldAge); !ok || v != "4" {
		t.Fatalf("age=%q,%v", v, ok)
	}
	for _, f := range []Field{FieldShedNumber, FieldGender, FieldTagNumber} {
		if _, ok := c.Get(f); ok {
			t.Fatalf("%s must be absent", f)
		}
	}
}

func TestSearchCriteria_SetGet(t *testing.T) {
	t.Parallel()

	var c SearchCriteria
	for i, f := range SearchFields {
		c.Set(f, string(rune('a'+i)))
	}
	for i, f := range SearchFields {
		v, ok := c.Get(f)
		if !ok || v != string(rune('a'+i)) {
			t.Fatalf("%s: got %q,%v", f, v, ok)
		}
	}

	c.Set(Field("unknown"), "x")
	if _, ok := c.Get(Field("unknown")); ok {
		t.Fatalf("unknown field must never be present")
	}
}

func TestSearchCriteria_EmptyValueIsPresent(t *testing.T) {
	t.Parallel()

	// Present-but-empty is still a criterion; only nil means absent.
	c := SearchCriteria{Breed: strp("")}
	preds := BuildPredicates(c)
	if len(preds) != 1 || preds[0].Value != "%%" {
		t.Fatalf("expected match-all ILIKE predicate, got %v", preds)
	}
}
