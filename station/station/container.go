package station

import (
	"github.com/gaslabs/station/station/access"
	"github.com/gaslabs/station/station/chain"
	"github.com/gaslabs/station/station/expiry"
	"github.com/gaslabs/station/station/pool"
	"github.com/gaslabs/station/station/signer"
	"github.com/gaslabs/station/station/usagecap"
)

// Container owns a GasStation plus the background expiry loop its pool
// depends on. Its lifetime is bound to Close, not to garbage collection:
// Go has no destructor to cancel the loop automatically.
type Container struct {
	station *GasStation
	loop    *expiry.Loop
}

// NewContainer builds a GasStation and starts its expiry loop.
func NewContainer(sg signer.Signer, store pool.Store, chainClient chain.Client, dailyGasCap uint64, accessController *access.Controller) *Container {
	st := New(sg, store, chainClient, usagecap.New(dailyGasCap), accessController)
	loop := expiry.Start(store, chainClient)
	return &Container{station: st, loop: loop}
}

// Station returns the underlying GasStation for serving requests.
func (c *Container) Station() *GasStation { return c.station }

// Close stops the expiry loop and waits for it to exit. Call before
// tearing down the store.
func (c *Container) Close() {
	c.loop.Close()
}
