// Command gasstationd runs the gas sponsorship service: it serves the
// public RPC surface over HTTP and runs the background coin-expiry loop
// until terminated.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gaslabs/station/config"
	"github.com/gaslabs/station/station/access"
	"github.com/gaslabs/station/station/chain"
	"github.com/gaslabs/station/station/pool"
	"github.com/gaslabs/station/station/rpc"
	"github.com/gaslabs/station/station/signer"
	stationpkg "github.com/gaslabs/station/station/station"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to a gasstationd TOML configuration file",
	}
	listenAddrFlag = &cli.StringFlag{
		Name:  "rpc.listen-addr",
		Usage: "Override the RPC listen address from the config file",
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Log verbosity: trace, debug, info, warn, error, crit",
		Value: "info",
	}
)

func main() {
	app := &cli.App{
		Name:   "gasstationd",
		Usage:  "gas sponsorship station",
		Flags:  []cli.Flag{configFlag, listenAddrFlag, verbosityFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	setupLogging(cliCtx.String(verbosityFlag.Name))

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		log.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		log.Warn("failed to set GOMAXPROCS", "err", err)
	}

	cfg := config.Default()
	if path := cliCtx.String(configFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if addr := cliCtx.String(listenAddrFlag.Name); addr != "" {
		cfg.RPC.ListenAddr = addr
	}

	container, accessController, err := build(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	var jwtSecret []byte
	if cfg.RPC.JWTSecret != "" {
		jwtSecret = []byte(cfg.RPC.JWTSecret)
	}

	reload := func() error {
		if cfg.Access.RulesFile == "" {
			return nil
		}
		rules, defAct, err := access.LoadRulesFile(cfg.Access.RulesFile)
		if err != nil {
			return err
		}
		accessController.Reload(rules, defAct)
		return nil
	}

	var server *rpc.Server
	if len(jwtSecret) > 0 {
		server = rpc.NewServerWithJWT(container.Station(), jwtSecret, reload)
	} else {
		server = rpc.NewServer(container.Station(), cfg.RPC.BearerToken, reload)
	}

	httpServer := &http.Server{Addr: cfg.RPC.ListenAddr, Handler: server.Handler()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gasstationd listening", "addr", cfg.RPC.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down gasstationd")
		return httpServer.Shutdown(context.Background())
	})

	return g.Wait()
}

// build wires the station.Container from configuration: signer, pool
// store, chain client, and access controller.
func build(cfg config.GasStationConfig) (*stationpkg.Container, *access.Controller, error) {
	sg, err := buildSigner(cfg.Signer)
	if err != nil {
		return nil, nil, fmt.Errorf("building signer: %w", err)
	}

	store, err := buildStore(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("building pool store: %w", err)
	}

	chainClient := chain.NewHTTPClient(cfg.Chain.RPCURL, cfg.Chain.BasicAuthUser, cfg.Chain.BasicAuthPass)

	var accessController *access.Controller
	if cfg.Access.RulesFile != "" {
		rules, defAct, err := access.LoadRulesFile(cfg.Access.RulesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading access rules: %w", err)
		}
		accessController = access.NewController(rules, defAct)
	} else {
		accessController = access.NewController(nil, access.Allow)
	}

	container := stationpkg.NewContainer(sg, store, chainClient, cfg.DailyGasCap, accessController)
	return container, accessController, nil
}

func buildSigner(cfg config.SignerConfig) (signer.Signer, error) {
	switch cfg.Kind {
	case config.SignerSidecar:
		return signer.NewSidecarSigner(context.Background(), cfg.SidecarURL)
	case config.SignerLocal, "":
		return signer.GenerateLocalSigner()
	default:
		return nil, fmt.Errorf("unrecognized signer kind %q", cfg.Kind)
	}
}

func buildStore(cfg config.StorageConfig) (pool.Store, error) {
	switch cfg.Kind {
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return pool.NewRedisStore(rdb, cfg.Redis.Prefix), nil
	case config.StorageMemory, "":
		return pool.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unrecognized storage kind %q", cfg.Kind)
	}
}

func setupLogging(verbosity string) {
	lvl, err := log.LvlFromString(verbosity)
	if err != nil {
		lvl = log.LvlInfo
	}
	glogger := log.NewGlogHandler(log.NewTerminalHandler(os.Stderr, true))
	glogger.Verbosity(lvl)
	log.SetDefault(log.NewLogger(glogger))
}
