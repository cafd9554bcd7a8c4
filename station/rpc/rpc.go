// Package rpc implements the public JSON-over-HTTP surface consumed by
// GasStationRpcClient, and that client's Go counterpart.
package rpc

import (
	"fmt"

	"github.com/gaslabs/station/station/station"
	"github.com/gaslabs/station/station/types"
)

// Version is the service version string returned from GET /version.
const Version = "gaslabs-station/0.1.0"

// ReserveGasRequest is the body of POST /v1/reserve_gas.
type ReserveGasRequest struct {
	GasBudget           uint64 `json:"gas_budget"`
	ReserveDurationSecs uint64 `json:"reserve_duration_secs"`
}

// GasCoin is the wire form of a reserved payment coin.
type GasCoin struct {
	ObjectID string `json:"object_id"`
	Version  uint64 `json:"version"`
	Digest   string `json:"digest"`
}

func (g GasCoin) toObjectRef() (types.ObjectRef, error) {
	var ref types.ObjectRef
	if err := ref.ObjectID.UnmarshalText([]byte(g.ObjectID)); err != nil {
		return types.ObjectRef{}, fmt.Errorf("payment coin: %w", err)
	}
	if err := ref.Digest.UnmarshalText([]byte(g.Digest)); err != nil {
		return types.ObjectRef{}, fmt.Errorf("payment coin: %w", err)
	}
	ref.Version = g.Version
	return ref, nil
}

// ReserveGasResult is the success payload of POST /v1/reserve_gas.
type ReserveGasResult struct {
	SponsorAddress string    `json:"sponsor_address"`
	ReservationID  uint64    `json:"reservation_id"`
	GasCoins       []GasCoin `json:"gas_coins"`
}

// ReserveGasResponse wraps ReserveGasResult in the result/error envelope
// every RPC response uses.
type ReserveGasResponse struct {
	Result *ReserveGasResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// ArgumentView is the wire form of station.Argument.
type ArgumentView struct {
	Kind  string `json:"kind"`
	Index uint16 `json:"index"`
}

// CommandView is the wire form of station.Command.
type CommandView struct {
	Kind      string         `json:"kind"`
	Arguments []ArgumentView `json:"arguments,omitempty"`
}

// ExecuteTxRequest is the body of POST /v1/execute_tx. TxBytes and UserSig
// are base64-encoded over the wire, hence the plain string fields. BCS
// encoding of the transaction is out of scope, so the fields the
// gas-coin-misuse check and the predicate engine need (Sponsor, Sender,
// PackageID, Module, Function, GasBudget, Payment, Commands) travel
// alongside TxBytes instead of being recovered by decoding it; the server
// assembles a full station.TxData from this envelope before handing off.
type ExecuteTxRequest struct {
	ReservationID uint64        `json:"reservation_id"`
	TxBytes       string        `json:"tx_bytes"`
	UserSig       string        `json:"user_sig"`
	RequestType   string        `json:"request_type,omitempty"`
	Sponsor       string        `json:"sponsor"`
	Sender        string        `json:"sender,omitempty"`
	PackageID     string        `json:"package_id,omitempty"`
	Module        string        `json:"module,omitempty"`
	Function      string        `json:"function,omitempty"`
	GasBudget     uint64        `json:"gas_budget"`
	Payment       []GasCoin     `json:"payment"`
	Commands      []CommandView `json:"commands,omitempty"`
}

func (a ArgumentView) toArgument() (station.Argument, error) {
	kind, err := station.ParseArgumentKind(a.Kind)
	if err != nil {
		return station.Argument{}, err
	}
	return station.Argument{Kind: kind, Index: a.Index}, nil
}

func (c CommandView) toCommand() (station.Command, error) {
	kind, err := station.ParseCommandKind(c.Kind)
	if err != nil {
		return station.Command{}, err
	}
	args := make([]station.Argument, len(c.Arguments))
	for i, a := range c.Arguments {
		arg, err := a.toArgument()
		if err != nil {
			return station.Command{}, err
		}
		args[i] = arg
	}
	return station.Command{Kind: kind, Arguments: args}, nil
}

// toTxData assembles a station.TxData from the request envelope and the
// already-decoded signing bytes.
func (req ExecuteTxRequest) toTxData(txBytes []byte) (station.TxData, error) {
	var sponsor types.SponsorAddress
	if err := sponsor.UnmarshalText([]byte(req.Sponsor)); err != nil {
		return station.TxData{}, fmt.Errorf("sponsor: %w", err)
	}

	var sender types.SponsorAddress
	if req.Sender != "" {
		if err := sender.UnmarshalText([]byte(req.Sender)); err != nil {
			return station.TxData{}, fmt.Errorf("sender: %w", err)
		}
	}

	payment := make([]types.ObjectRef, len(req.Payment))
	for i, gc := range req.Payment {
		ref, err := gc.toObjectRef()
		if err != nil {
			return station.TxData{}, err
		}
		payment[i] = ref
	}

	commands := make([]station.Command, len(req.Commands))
	for i, cv := range req.Commands {
		cmd, err := cv.toCommand()
		if err != nil {
			return station.TxData{}, err
		}
		commands[i] = cmd
	}

	return station.TxData{
		Sponsor:      sponsor,
		Sender:       sender,
		PackageID:    req.PackageID,
		Module:       req.Module,
		Function:     req.Function,
		GasBudget:    req.GasBudget,
		Payment:      payment,
		Commands:     commands,
		SigningBytes: txBytes,
	}, nil
}

// EffectsView is the wire form of transaction effects.
type EffectsView struct {
	Status          string `json:"status"`
	ComputationCost int64  `json:"computation_cost"`
	StorageCost     int64  `json:"storage_cost"`
	StorageRebate   int64  `json:"storage_rebate"`
	GasObjectID     string `json:"gas_object_id"`
	GasObjectVer    uint64 `json:"gas_object_version"`
	Digest          string `json:"digest"`
}

// ExecuteTxResponse is the result/error envelope for POST /v1/execute_tx.
type ExecuteTxResponse struct {
	Effects *EffectsView `json:"effects,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// errResponse is the envelope for handlers that only ever report an
// error field (malformed requests, unexpected failures).
type errResponse struct {
	Error string `json:"error"`
}
