package records

import (
	"strconv"
	"strings"
)

// Operator is a predicate comparison.
type Operator string

const (
	// OpEq is exact equality.
	OpEq Operator = "EQ"
	// OpILike is case-insensitive LIKE; Value carries the pattern with its wildcards.
	OpILike Operator = "ILIKE"
)

// likeEscape is the escape character used in ILIKE patterns.
const likeEscape = '\\'

// Predicate is a single filter condition.
type Predicate struct {
	Field Field
	Op    Operator
	Value string
}

// BuildPredicates translates criteria into predicates, one per present field, in
// SearchFields order. The predicates are meant to be conjoined.
//
//   - age: EQ, only when the value is an integer; otherwise it is dropped. Integers too
//     large for any age still produce a predicate, which matches nothing.
//   - gender: EQ on the raw value.
//   - everything else: ILIKE '%value%' with LIKE metacharacters in value escaped,
//     i.e. a literal case-insensitive substring match.
func BuildPredicates(c SearchCriteria) []Predicate {
	var out []Predicate
	for _, f := range SearchFields {
		v, ok := c.Get(f)
		if !ok {
			continue
		}
		switch f {
		case FieldAge:
			n, ok := canonicalInteger(v)
			if !ok {
				continue
			}
			out = append(out, Predicate{Field: f, Op: OpEq, Value: n})
		case FieldGender:
			out = append(out, Predicate{Field: f, Op: OpEq, Value: v})
		default:
			out = append(out, Predicate{Field: f, Op: OpILike, Value: "%" + escapeLike(v) + "%"})
		}
	}
	return out
}

// canonicalInteger reports whether s is an optionally signed run of decimal digits and
// returns it without surrounding space, '+' or leading zeros. It does not bound the value.
func canonicalInteger(s string) (string, bool) {
	s = strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg, s = true, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if s == "" {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", false
		}
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0", true
	}
	if neg {
		s = "-" + s
	}
	return s, true
}

// ageValue parses a canonical age predicate value. ok is false for malformed values;
// fits is false for integers outside the int64 range.
func ageValue(s string) (n int64, fits, ok bool) {
	c, ok := canonicalInteger(s)
	if !ok {
		return 0, false, false
	}
	n, err := strconv.ParseInt(c, 10, 64)
	if err != nil {
		return 0, false, true
	}
	return n, true, true
}

func escapeLike(s string) string {
	if !strings.ContainsAny(s, `\%_`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if r == likeEscape || r == '%' || r == '_' {
			b.WriteRune(likeEscape)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// likeMatch reports whether s matches a LIKE pattern case-insensitively.
// It is the in-memory counterpart of PostgreSQL's ILIKE ... ESCAPE '\'.
func likeMatch(pattern, s string) bool {
	type tok struct {
		any1, anyN bool
		r          rune
	}
	var toks []tok
	esc := false
	for _, r := range strings.ToLower(pattern) {
		switch {
		case esc:
			toks = append(toks, tok{r: r})
			esc = false
		case r == likeEscape:
			esc = true
		case r == '%':
			toks = append(toks, tok{anyN: true})
		case r == '_':
			toks = append(toks, tok{any1: true})
		default:
			toks = append(toks, tok{r: r})
		}
	}

	in := []rune(strings.ToLower(s))
	ti, si := 0, 0
	starTi, starSi := -1, 0
	for si < len(in) {
		switch {
		case ti < len(toks) && toks[ti].anyN:
			starTi, starSi = ti, si
			ti++
		case ti < len(toks) && (toks[ti].any1 || toks[ti].r == in[si]):
			ti++
			si++
		case starTi >= 0:
			starSi++
			si = starSi
			ti = starTi + 1
		default:
			return false
		}
	}
	for ti < len(toks) && toks[ti].anyN {
		ti++
	}
	return ti == len(toks)
}
