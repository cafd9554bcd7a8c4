package station

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gaslabs/station/station/access"
	"github.com/gaslabs/station/station/chain"
	staterrors "github.com/gaslabs/station/station/errors"
	"github.com/gaslabs/station/station/metrics"
	"github.com/gaslabs/station/station/pool"
	"github.com/gaslabs/station/station/retry"
	"github.com/gaslabs/station/station/signer"
	"github.com/gaslabs/station/station/types"
	"github.com/gaslabs/station/station/usagecap"
)

const signAndSubmitAttempts = 3

// GasStation combines the reservation engine and execution pipeline over
// its five collaborators. It holds no locks of its own: each collaborator
// call may suspend, and the store is the only shared mutable state.
type GasStation struct {
	signer   signer.Signer
	store    pool.Store
	chain    chain.Client
	usageCap *usagecap.Cap
	access   *access.Controller
}

// New builds a GasStation. accessController may be nil, in which case
// every request is allowed (no predicate gate configured).
func New(sg signer.Signer, store pool.Store, chainClient chain.Client, usageCap *usagecap.Cap, accessController *access.Controller) *GasStation {
	return &GasStation{
		signer:   sg,
		store:    store,
		chain:    chainClient,
		usageCap: usageCap,
		access:   accessController,
	}
}

// ReserveGas implements the reservation engine: check the daily cap, then
// lease coins summing to at least gasBudget for duration. No retry here:
// the caller retries end-to-end instead.
func (g *GasStation) ReserveGas(ctx context.Context, gasBudget uint64, duration time.Duration) (types.SponsorAddress, types.ReservationID, []types.ObjectRef, error) {
	start := time.Now()

	if err := g.usageCap.CheckUsage(); err != nil {
		return types.SponsorAddress{}, 0, nil, err
	}

	sponsor := g.signer.Address()
	resID, coins, err := g.store.LeaseCoins(ctx, gasBudget, duration)
	if err != nil {
		return types.SponsorAddress{}, 0, nil, err
	}

	metrics.ObserveReserveGas(start, len(coins))

	refs := make([]types.ObjectRef, len(coins))
	for i, c := range coins {
		refs[i] = c.ObjectRef
	}
	return sponsor, resID, refs, nil
}

// CheckAccess evaluates the predicate engine against tx, returning whether
// the request is allowed. ExecuteTransaction calls this itself once the
// transaction's full content is known; exported so callers can also
// pre-flight a request before building it.
func (g *GasStation) CheckAccess(tx access.Transaction) access.Action {
	if g.access == nil {
		return access.Allow
	}
	return g.access.Evaluate(tx)
}

// ExecuteTransaction implements the execution pipeline. Once step 3
// (MarkReadyForExecution) succeeds, coins are guaranteed to be returned to
// the pool by step 8 regardless of outcome — no other mechanism recovers
// them, since marking ready removes them from auto-expiry.
func (g *GasStation) ExecuteTransaction(ctx context.Context, reservationID types.ReservationID, txData TxData, userSig signer.Signature, requestType chain.RequestType) (types.Effects, error) {
	if !g.signer.IsValidAddress(txData.Sponsor) {
		return types.Effects{}, fmt.Errorf("%w: %s", staterrors.ErrInvalidSponsor, txData.Sponsor)
	}
	if g.CheckAccess(txData.asAccessTransaction()) == access.Deny {
		return types.Effects{}, staterrors.ErrAccessDenied
	}
	if txData.usesGasCoinAsArgument() {
		return types.Effects{}, staterrors.ErrGasCoinMisuse
	}

	paymentIDs := txData.PaymentIDs()
	paymentCount := len(paymentIDs)
	log.Debug("executing transaction", "reservation", reservationID, "paymentCoins", paymentCount)

	if err := g.store.MarkReadyForExecution(ctx, reservationID); err != nil {
		return types.Effects{}, err
	}
	log.Debug("reservation ready for execution", "reservation", reservationID)

	totalBefore := g.totalBalance(ctx, paymentIDs)
	log.Debug("gas coin balance prior to execution", "reservation", reservationID, "total", totalBefore)

	effects, execErr := g.executeImpl(ctx, txData, userSig, requestType)

	var updated []types.Coin
	if execErr == nil {
		netUsed := effects.GasCostSummary.NetGasUsage()
		newBalance := int64(totalBefore) - netUsed
		if newBalance < 0 {
			newBalance = 0
		}
		updated = []types.Coin{{
			ObjectRef: effects.GasObject,
			Balance:   uint64(newBalance),
		}}
		log.Debug("new gas coin balance after execution", "reservation", reservationID, "balance", newBalance)
	} else {
		log.Debug("querying latest gas state since transaction failed", "reservation", reservationID, "err", execErr)
		latest, err := g.chain.FetchCoins(ctx, paymentIDs)
		if err != nil {
			log.Error("failed to fetch latest coin state on execution failure", "err", err)
		}
		for _, c := range latest {
			updated = append(updated, c)
		}
	}

	smashed := paymentCount - len(updated)

	repoolStart := time.Now()
	g.releaseCoins(ctx, updated)
	metrics.ObserveRepool(repoolStart)

	metrics.ObserveExecutionResult(execErr == nil, smashed)
	if smashed > 0 {
		log.Info("smashed coins after transaction execution", "reservation", reservationID, "count", smashed)
	}
	log.Info("transaction execution finished", "reservation", reservationID, "success", execErr == nil)

	return effects, execErr
}

func (g *GasStation) executeImpl(ctx context.Context, txData TxData, userSig signer.Signature, requestType chain.RequestType) (types.Effects, error) {
	signStart := time.Now()
	var sponsorSig signer.Signature
	err := retry.WithMaxAttempts(ctx, signAndSubmitAttempts, func() error {
		var signErr error
		sponsorSig, signErr = g.signer.Sign(ctx, txData.SigningBytes)
		if signErr != nil {
			log.Error("failed to sign transaction", "err", signErr)
		}
		return signErr
	})
	metrics.ObserveSigning(signStart)
	if err != nil {
		return types.Effects{}, fmt.Errorf("%w: %v", staterrors.ErrSigningFailed, err)
	}

	signedTx := encodeSignedTransaction(txData.SigningBytes, sponsorSig, userSig)

	submitStart := time.Now()
	effects, err := g.chain.SubmitTx(ctx, signedTx, requestType)
	metrics.ObserveSubmission(submitStart)
	if err != nil {
		return types.Effects{}, err
	}

	newUsage := g.usageCap.AddUsage(effects.GasCostSummary.NetGasUsage())
	log.Debug("updated daily gas usage", "sponsor", txData.Sponsor, "spent", newUsage)

	return effects, nil
}

func (g *GasStation) totalBalance(ctx context.Context, ids []types.ObjectID) uint64 {
	latest, err := g.chain.FetchCoins(ctx, ids)
	if err != nil {
		log.Error("failed to fetch payment coin balances", "err", err)
		return 0
	}
	var sum uint64
	for _, c := range latest {
		sum += c.Balance
	}
	return sum
}

// releaseCoins returns coins to the pool, retrying forever: losing a coin
// is worse than blocking indefinitely.
func (g *GasStation) releaseCoins(ctx context.Context, coins []types.Coin) {
	if len(coins) == 0 {
		return
	}
	log.Debug("releasing gas coins back to pool", "count", len(coins))
	err := retry.Forever(ctx, func() error {
		return g.store.AddCoins(ctx, coins)
	})
	if err != nil {
		// Only returns an error if ctx was cancelled, i.e. shutdown.
		log.Error("gave up releasing gas coins: context cancelled", "err", err)
	}
}

// DebugCheckHealth performs an end-to-end self test: reserve gas, build a
// no-op transaction referencing those coins, and ask the signer to sign
// it. It exercises storage and signer without touching the chain.
func (g *GasStation) DebugCheckHealth(ctx context.Context) error {
	const healthCheckBudget = 1_000_000
	_, _, coins, err := g.ReserveGas(ctx, healthCheckBudget, 3*time.Second)
	if err != nil {
		return fmt.Errorf("debug health check: reserve gas: %w", err)
	}
	txData := TxData{
		Sponsor:   g.signer.Address(),
		GasBudget: healthCheckBudget,
		Payment:   coins,
	}
	if _, err := g.signer.Sign(ctx, txData.SigningBytes); err != nil {
		return fmt.Errorf("debug health check: sign: %w", err)
	}
	return nil
}

// AvailablePoolCoins reports the number of coins currently available for
// leasing and updates the pool-available metrics gauge with it.
func (g *GasStation) AvailablePoolCoins(ctx context.Context) (uint64, error) {
	n, err := g.store.AvailableCount(ctx)
	if err != nil {
		return 0, err
	}
	metrics.SetPoolAvailable(n)
	return n, nil
}

// encodeSignedTransaction assembles the wire form the chain expects: the
// unsigned transaction bytes plus both required signatures, length-prefixed
// so the recipient can split them back apart.
func encodeSignedTransaction(txBytes []byte, sponsorSig, userSig signer.Signature) []byte {
	buf := make([]byte, 0, 12+len(txBytes)+len(sponsorSig)+len(userSig))
	buf = appendUint32(buf, uint32(len(txBytes)))
	buf = append(buf, txBytes...)
	buf = appendUint32(buf, uint32(len(sponsorSig)))
	buf = append(buf, sponsorSig...)
	buf = appendUint32(buf, uint32(len(userSig)))
	buf = append(buf, userSig...)
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
