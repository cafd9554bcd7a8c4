package access

import "sync/atomic"

// Action is the outcome a matching rule or the default produces.
type Action int

const (
	Deny Action = iota
	Allow
)

func (a Action) String() string {
	if a == Allow {
		return "allow"
	}
	return "deny"
}

// Transaction is the subset of a transaction's content the predicate
// engine evaluates rules against.
type Transaction struct {
	Sender    string
	PackageID string
	Module    string
	Function  string
	GasBudget uint64
}

// Condition is a single atomic predicate over one field of a Transaction.
// Exactly one of the predicate fields is non-nil.
type Condition struct {
	Sender    *StringPredicate
	PackageID *StringPredicate
	Module    *StringPredicate
	Function  *StringPredicate
	GasBudget *NumberPredicate[uint64]
}

func (c Condition) matches(tx Transaction) bool {
	switch {
	case c.Sender != nil:
		return c.Sender.Matches(tx.Sender)
	case c.PackageID != nil:
		return c.PackageID.Matches(tx.PackageID)
	case c.Module != nil:
		return c.Module.Matches(tx.Module)
	case c.Function != nil:
		return c.Function.Matches(tx.Function)
	case c.GasBudget != nil:
		return c.GasBudget.Matches(tx.GasBudget)
	default:
		return false
	}
}

// Rule is a conjunction of conditions paired with the action to take when
// every condition holds.
type Rule struct {
	Conditions []Condition
	Action     Action
}

func (r Rule) matches(tx Transaction) bool {
	for _, c := range r.Conditions {
		if !c.matches(tx) {
			return false
		}
	}
	return true
}

// ruleSet is the data swapped atomically by Reload: an ordered rule list
// plus the default action applied when nothing matches.
type ruleSet struct {
	rules  []Rule
	defAct Action
}

// Controller evaluates an ordered, hot-swappable rule list against
// transactions. The zero value denies everything until Reload is called.
type Controller struct {
	current atomic.Pointer[ruleSet]
}

// NewController builds a Controller with the given rules and default
// action, matching the "first match wins, default required" semantics.
func NewController(rules []Rule, defaultAction Action) *Controller {
	c := &Controller{}
	c.current.Store(&ruleSet{rules: rules, defAct: defaultAction})
	return c
}

// Reload atomically replaces the active rule set, for the
// /v1/reload_access_controller RPC endpoint.
func (c *Controller) Reload(rules []Rule, defaultAction Action) {
	c.current.Store(&ruleSet{rules: rules, defAct: defaultAction})
}

// Evaluate walks the active rules in order and returns the action of the
// first rule whose conditions all hold, or the configured default action
// if none match.
func (c *Controller) Evaluate(tx Transaction) Action {
	set := c.current.Load()
	if set == nil {
		return Deny
	}
	for _, r := range set.rules {
		if r.matches(tx) {
			return r.Action
		}
	}
	return set.defAct
}
