// Package station wires the reservation engine and execution pipeline
// together over the coin pool, chain client, signer, and usage cap.
package station

import (
	"fmt"

	"github.com/gaslabs/station/station/access"
	"github.com/gaslabs/station/station/types"
)

// ArgumentKind distinguishes the reference an Argument makes within a
// transaction's command list.
type ArgumentKind int

const (
	// ArgGasCoin is the reserved handle to the transaction's gas
	// payment coins. It may only be consumed by the fee-payment
	// machinery, never passed as a command argument.
	ArgGasCoin ArgumentKind = iota
	ArgInput
	ArgResult
	ArgNestedResult
)

func (k ArgumentKind) String() string {
	switch k {
	case ArgGasCoin:
		return "gas_coin"
	case ArgInput:
		return "input"
	case ArgResult:
		return "result"
	case ArgNestedResult:
		return "nested_result"
	default:
		return "unknown"
	}
}

// ParseArgumentKind parses the wire form String produces.
func ParseArgumentKind(s string) (ArgumentKind, error) {
	switch s {
	case "gas_coin":
		return ArgGasCoin, nil
	case "input":
		return ArgInput, nil
	case "result":
		return ArgResult, nil
	case "nested_result":
		return ArgNestedResult, nil
	default:
		return 0, fmt.Errorf("unrecognized argument kind %q", s)
	}
}

// Argument is one reference a Command makes to an input, a gas coin, or a
// prior command's result.
type Argument struct {
	Kind  ArgumentKind
	Index uint16
}

// CommandKind enumerates the programmable-transaction command types that
// can reference arguments.
type CommandKind int

const (
	CommandMoveCall CommandKind = iota
	CommandTransferObjects
	CommandSplitCoins
	CommandMergeCoins
	CommandPublish
	CommandMakeMoveVec
	CommandUpgrade
)

func (k CommandKind) String() string {
	switch k {
	case CommandMoveCall:
		return "move_call"
	case CommandTransferObjects:
		return "transfer_objects"
	case CommandSplitCoins:
		return "split_coins"
	case CommandMergeCoins:
		return "merge_coins"
	case CommandPublish:
		return "publish"
	case CommandMakeMoveVec:
		return "make_move_vec"
	case CommandUpgrade:
		return "upgrade"
	default:
		return "unknown"
	}
}

// ParseCommandKind parses the wire form String produces.
func ParseCommandKind(s string) (CommandKind, error) {
	switch s {
	case "move_call":
		return CommandMoveCall, nil
	case "transfer_objects":
		return CommandTransferObjects, nil
	case "split_coins":
		return CommandSplitCoins, nil
	case "merge_coins":
		return CommandMergeCoins, nil
	case "publish":
		return CommandPublish, nil
	case "make_move_vec":
		return CommandMakeMoveVec, nil
	case "upgrade":
		return CommandUpgrade, nil
	default:
		return 0, fmt.Errorf("unrecognized command kind %q", s)
	}
}

// Command is one step of a programmable transaction, with every argument
// reference it makes flattened into Arguments regardless of the command's
// specific shape (MoveCall's call arguments, SplitCoins' source coin,
// MergeCoins' destination and sources, ...).
type Command struct {
	Kind      CommandKind
	Arguments []Argument
}

// TxData is the transaction content the execution pipeline validates,
// signs, and submits. PackageID/Module/Function reflect the transaction's
// primary Move call, for the predicate engine to evaluate against.
type TxData struct {
	Sponsor   types.SponsorAddress
	Sender    types.SponsorAddress
	PackageID string
	Module    string
	Function  string
	GasBudget uint64
	Payment   []types.ObjectRef
	Commands  []Command

	// SigningBytes is the canonical byte encoding the sponsor signs and
	// the chain verifies. Left to the caller to produce (BCS or
	// equivalent is outside this service's concerns).
	SigningBytes []byte
}

// asAccessTransaction projects the fields the predicate engine evaluates
// rules against.
func (t TxData) asAccessTransaction() access.Transaction {
	return access.Transaction{
		Sender:    t.Sender.String(),
		PackageID: t.PackageID,
		Module:    t.Module,
		Function:  t.Function,
		GasBudget: t.GasBudget,
	}
}

// PaymentIDs extracts the object ids of the transaction's payment coins.
func (t TxData) PaymentIDs() []types.ObjectID {
	ids := make([]types.ObjectID, len(t.Payment))
	for i, ref := range t.Payment {
		ids[i] = ref.ObjectID
	}
	return ids
}

// usesGasCoinAsArgument reports whether any command in the transaction
// references the reserved gas-coin handle as an ordinary argument.
func (t TxData) usesGasCoinAsArgument() bool {
	for _, cmd := range t.Commands {
		for _, arg := range cmd.Arguments {
			if arg.Kind == ArgGasCoin {
				return true
			}
		}
	}
	return false
}
