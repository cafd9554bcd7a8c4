package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberPredicateMatches(t *testing.T) {
	assert.True(t, Equal[uint64](42).Matches(42))
	assert.False(t, Equal[uint64](42).Matches(43))

	assert.False(t, NotEqual[uint64](42).Matches(42))
	assert.True(t, NotEqual[uint64](42).Matches(43))

	assert.False(t, GreaterThan[uint64](42).Matches(42))
	assert.True(t, GreaterThan[uint64](42).Matches(43))

	assert.True(t, LessThan[uint64](42).Matches(41))
	assert.False(t, LessThan[uint64](42).Matches(42))

	assert.True(t, GreaterThanOrEqual[uint64](42).Matches(42))
	assert.True(t, GreaterThanOrEqual[uint64](42).Matches(43))

	assert.True(t, LessThanOrEqual[uint64](42).Matches(42))
	assert.True(t, LessThanOrEqual[uint64](42).Matches(41))
}

func TestNumberPredicateSerializationRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		p    NumberPredicate[uint64]
		want string
	}{
		{"eq", Equal[uint64](42), "=42"},
		{"ne", NotEqual[uint64](42), "!=42"},
		{"gt", GreaterThan[uint64](42), ">42"},
		{"lt", LessThan[uint64](42), "<42"},
		{"ge", GreaterThanOrEqual[uint64](42), ">=42"},
		{"le", LessThanOrEqual[uint64](42), "<=42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.p.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))

			var parsed NumberPredicate[uint64]
			require.NoError(t, parsed.UnmarshalText(got))
			assert.Equal(t, tc.p, parsed)
		})
	}
}

// TestParseOrderPrefersLongestOperator checks that ">=5" parses as
// "greater-than-or-equal 5", never as ">" followed by a leftover "=5".
func TestParseOrderPrefersLongestOperator(t *testing.T) {
	var ge NumberPredicate[uint64]
	require.NoError(t, ge.UnmarshalText([]byte(">=5")))
	assert.True(t, ge.Matches(5))
	assert.Equal(t, ">=5", ge.String())

	var le NumberPredicate[uint64]
	require.NoError(t, le.UnmarshalText([]byte("<=5")))
	assert.True(t, le.Matches(5))
	assert.Equal(t, "<=5", le.String())
}

func TestStringPredicate(t *testing.T) {
	eq := StringEquals("foo")
	assert.True(t, eq.Matches("foo"))
	assert.False(t, eq.Matches("Foo"))

	in := StringIn("a", "b", "c")
	assert.True(t, in.Matches("b"))
	assert.False(t, in.Matches("d"))

	notIn := StringNotIn("a", "b")
	assert.True(t, notIn.Matches("c"))
	assert.False(t, notIn.Matches("a"))
}
