package records

import (
	"reflect"
	"testing"
)

func TestCompileWhere(t *testing.T) {
	t.Parallel()

	where, args, err := compileWhere(nil)
	if err != nil || where != "" || args != nil {
		t.Fatalf("empty: where=%q args=%v err=%v", where, args, err)
	}

	preds := BuildPredicates(SearchCriteria{
		Breed:  strp("jer'; DROP TABLE cattle; --"),
		Age:    strp("3"),
		Gender: strp("f"),
	})
	where, args, err = compileWhere(preds)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	wantWhere := ` WHERE "breed" ILIKE $1 ESCAPE '\' AND "age" = $2::bigint AND "gender" = $3`
	if where != wantWhere {
		t.Fatalf("where:\n got %q\nwant %q", where, wantWhere)
	}
	wantArgs := []any{"%jer'; DROP TABLE cattle; --%", int64(3), "f"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("args=%#v want %#v", args, wantArgs)
	}
}

func TestCompileWhere_LargeAges(t *testing.T) {
	t.Parallel()

	where, args, err := compileWhere(BuildPredicates(SearchCriteria{Age: strp("99999999999")}))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if where != ` WHERE "age" = $1::bigint` || !reflect.DeepEqual(args, []any{int64(99999999999)}) {
		t.Fatalf("int64 age: where=%q args=%#v", where, args)
	}

	where, args, err = compileWhere(BuildPredicates(SearchCriteria{
		Age:    strp("99999999999999999999"),
		Gender: strp("f"),
	}))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if where != ` WHERE FALSE AND "gender" = $1` || !reflect.DeepEqual(args, []any{"f"}) {
		t.Fatalf("overflow age: where=%q args=%#v", where, args)
	}
}

func TestCompileWhere_ShedNumberColumn(t *testing.T) {
	t.Parallel()

	where, _, err := compileWhere([]Predicate{{Field: FieldShedNumber, Op: OpILike, Value: "%S%"}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if where != ` WHERE "shed_no" ILIKE $1 ESCAPE '\'` {
		t.Fatalf("where=%q", where)
	}
}

func TestCompileWhere_Rejects(t *testing.T) {
	t.Parallel()

	cases := [][]Predicate{
		{{Field: "owner", Op: OpEq, Value: "x"}},
		{{Field: FieldBreed, Op: "REGEX", Value: "x"}},
		{{Field: FieldAge, Op: OpEq, Value: "x"}},
		{{Field: FieldAge, Op: OpILike, Value: "3"}},
	}
	for i, preds := range cases {
		if _, _, err := compileWhere(preds); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestWithSchema_Validates(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"", "  ", "bad-name", `x"y`} {
		st := &PostgresStore{}
		if err := WithSchema(bad)(st); err == nil {
			t.Fatalf("WithSchema(%q) expected error", bad)
		}
	}

	st := &PostgresStore{}
	if err := WithSchema(" farm ")(st); err != nil || st.schema != "farm" {
		t.Fatalf("schema=%q err=%v", st.schema, err)
	}
	if got := st.table("cattle"); got != `"farm"."cattle"` {
		t.Fatalf("table=%q", got)
	}
}

func TestNewPostgresStore_NilPool(t *testing.T) {
	t.Parallel()

	if _, err := NewPostgresStore(nil); err == nil {
		t.Fatalf("expected error for nil pool")
	}
}
