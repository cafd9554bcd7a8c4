package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(p StringPredicate) *StringPredicate { return &p }
func numPtr(p NumberPredicate[uint64]) *NumberPredicate[uint64] { return &p }

func TestControllerFirstMatchWins(t *testing.T) {
	rules := []Rule{
		{
			Conditions: []Condition{{Module: strPtr(StringEquals("forbidden"))}},
			Action:     Deny,
		},
		{
			Conditions: []Condition{{Sender: strPtr(StringEquals("0xalice"))}},
			Action:     Allow,
		},
	}
	c := NewController(rules, Deny)

	assert.Equal(t, Deny, c.Evaluate(Transaction{Sender: "0xalice", Module: "forbidden"}))
	assert.Equal(t, Allow, c.Evaluate(Transaction{Sender: "0xalice", Module: "ok"}))
	assert.Equal(t, Deny, c.Evaluate(Transaction{Sender: "0xbob", Module: "ok"}))
}

func TestControllerConjunctionRequiresAllConditions(t *testing.T) {
	rules := []Rule{
		{
			Conditions: []Condition{
				{Sender: strPtr(StringEquals("0xalice"))},
				{GasBudget: numPtr(LessThanOrEqual[uint64](1000))},
			},
			Action: Allow,
		},
	}
	c := NewController(rules, Deny)

	assert.Equal(t, Allow, c.Evaluate(Transaction{Sender: "0xalice", GasBudget: 500}))
	assert.Equal(t, Deny, c.Evaluate(Transaction{Sender: "0xalice", GasBudget: 5000}))
}

func TestControllerReloadSwapsRulesAtomically(t *testing.T) {
	c := NewController(nil, Deny)
	assert.Equal(t, Deny, c.Evaluate(Transaction{Sender: "0xalice"}))

	c.Reload([]Rule{{Conditions: nil, Action: Allow}}, Deny)
	assert.Equal(t, Allow, c.Evaluate(Transaction{Sender: "0xalice"}))
}
