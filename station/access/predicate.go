// Package access implements the predicate engine: an ordered list of
// access rules, each an atomic-predicate conjunction over a transaction's
// sender, called package/module/function, and gas budget.
package access

import (
	"fmt"
	"strconv"
	"strings"
)

// Number is the set of integer types a NumberPredicate may bound.
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

// numOp is the comparison a NumberPredicate applies.
type numOp int

const (
	opGreaterOrEqual numOp = iota
	opLessOrEqual
	opEqual
	opNotEqual
	opGreater
	opLess
)

// Operator string forms. Order matters: operators with overlapping
// prefixes must be tried longest-first so ">=" is recognized before ">"
// and "<=" before "<".
const (
	OpGE = ">="
	OpLE = "<="
	OpEQ = "="
	OpNE = "!="
	OpGT = ">"
	OpLT = "<"
)

// operatorOrder is the parse order: longest/most-specific prefixes first.
var operatorOrder = []struct {
	symbol string
	op     numOp
}{
	{OpGE, opGreaterOrEqual},
	{OpLE, opLessOrEqual},
	{OpNE, opNotEqual},
	{OpEQ, opEqual},
	{OpGT, opGreater},
	{OpLT, opLess},
}

func (o numOp) symbol() string {
	for _, e := range operatorOrder {
		if e.op == o {
			return e.symbol
		}
	}
	return "?"
}

// NumberPredicate is a single numeric bound, e.g. "gas_budget >= 1000".
type NumberPredicate[T Number] struct {
	op    numOp
	bound T
}

// NewNumberPredicate constructs an equality predicate, matching the
// original's blanket From<T> impl.
func NewNumberPredicate[T Number](bound T) NumberPredicate[T] {
	return NumberPredicate[T]{op: opEqual, bound: bound}
}

func GreaterThan[T Number](bound T) NumberPredicate[T]        { return NumberPredicate[T]{opGreater, bound} }
func LessThan[T Number](bound T) NumberPredicate[T]           { return NumberPredicate[T]{opLess, bound} }
func Equal[T Number](bound T) NumberPredicate[T]              { return NumberPredicate[T]{opEqual, bound} }
func NotEqual[T Number](bound T) NumberPredicate[T]           { return NumberPredicate[T]{opNotEqual, bound} }
func GreaterThanOrEqual[T Number](bound T) NumberPredicate[T] { return NumberPredicate[T]{opGreaterOrEqual, bound} }
func LessThanOrEqual[T Number](bound T) NumberPredicate[T]    { return NumberPredicate[T]{opLessOrEqual, bound} }

// Matches reports whether value satisfies the predicate.
func (p NumberPredicate[T]) Matches(value T) bool {
	switch p.op {
	case opGreater:
		return value > p.bound
	case opLess:
		return value < p.bound
	case opEqual:
		return value == p.bound
	case opNotEqual:
		return value != p.bound
	case opGreaterOrEqual:
		return value >= p.bound
	case opLessOrEqual:
		return value <= p.bound
	default:
		return false
	}
}

// String serializes the predicate as "<op><literal>", e.g. ">=42".
func (p NumberPredicate[T]) String() string {
	return fmt.Sprintf("%s%v", p.op.symbol(), p.bound)
}

func (p NumberPredicate[T]) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *NumberPredicate[T]) UnmarshalText(data []byte) error {
	s := string(data)
	for _, e := range operatorOrder {
		if strings.HasPrefix(s, e.symbol) {
			rest := strings.TrimPrefix(s, e.symbol)
			n, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				return fmt.Errorf("parsing numeric predicate %q: %w", s, err)
			}
			p.op = e.op
			p.bound = T(n)
			return nil
		}
	}
	return fmt.Errorf("parsing numeric predicate %q: no recognized operator", s)
}

// StringPredicate matches a string field by equality or set membership.
// Matching is always case-sensitive.
type StringPredicate struct {
	values map[string]struct{}
	negate bool
}

// StringEquals matches exactly one literal value.
func StringEquals(value string) StringPredicate {
	return StringPredicate{values: map[string]struct{}{value: {}}}
}

// StringIn matches any of the given literal values.
func StringIn(values ...string) StringPredicate {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return StringPredicate{values: m}
}

// StringNotIn matches any value not among the given literals.
func StringNotIn(values ...string) StringPredicate {
	p := StringIn(values...)
	p.negate = true
	return p
}

// Matches reports whether value satisfies the predicate.
func (p StringPredicate) Matches(value string) bool {
	_, in := p.values[value]
	if p.negate {
		return !in
	}
	return in
}
