package access

import (
	"fmt"
	"os"

	"github.com/naoina/toml"
)

// ruleFile is the on-disk TOML shape for a rule set: plain strings for
// every condition, parsed into predicates after decoding.
type ruleFile struct {
	DefaultAction string      `toml:"default-action"`
	Rules         []ruleEntry `toml:"rule"`
}

type ruleEntry struct {
	Action    string `toml:"action"`
	Sender    string `toml:"sender"`
	PackageID string `toml:"package-id"`
	Module    string `toml:"module"`
	Function  string `toml:"function"`
	GasBudget string `toml:"gas-budget"`
}

// LoadRulesFile parses a TOML rules file into an ordered Rule list plus a
// default action, suitable for NewController or Controller.Reload.
func LoadRulesFile(path string) ([]Rule, Action, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, Deny, fmt.Errorf("reading rules file: %w", err)
	}

	var rf ruleFile
	if err := toml.Unmarshal(b, &rf); err != nil {
		return nil, Deny, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	defAct, err := parseAction(rf.DefaultAction)
	if err != nil {
		return nil, Deny, fmt.Errorf("default-action: %w", err)
	}

	rules := make([]Rule, 0, len(rf.Rules))
	for i, re := range rf.Rules {
		rule, err := re.toRule()
		if err != nil {
			return nil, Deny, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, defAct, nil
}

func (re ruleEntry) toRule() (Rule, error) {
	action, err := parseAction(re.Action)
	if err != nil {
		return Rule{}, err
	}

	var conds []Condition
	if re.Sender != "" {
		p := StringEquals(re.Sender)
		conds = append(conds, Condition{Sender: &p})
	}
	if re.PackageID != "" {
		p := StringEquals(re.PackageID)
		conds = append(conds, Condition{PackageID: &p})
	}
	if re.Module != "" {
		p := StringEquals(re.Module)
		conds = append(conds, Condition{Module: &p})
	}
	if re.Function != "" {
		p := StringEquals(re.Function)
		conds = append(conds, Condition{Function: &p})
	}
	if re.GasBudget != "" {
		var p NumberPredicate[uint64]
		if err := p.UnmarshalText([]byte(re.GasBudget)); err != nil {
			return Rule{}, err
		}
		conds = append(conds, Condition{GasBudget: &p})
	}
	if len(conds) == 0 {
		return Rule{}, fmt.Errorf("rule has no conditions")
	}
	return Rule{Conditions: conds, Action: action}, nil
}

func parseAction(s string) (Action, error) {
	switch s {
	case "allow":
		return Allow, nil
	case "deny", "":
		return Deny, nil
	default:
		return Deny, fmt.Errorf("unrecognized action %q", s)
	}
}
