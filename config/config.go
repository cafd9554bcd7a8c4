// Package config defines the gas station's on-disk configuration format
// and its defaults.
package config

import (
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// StorageKind selects which pool.Store backend to construct.
type StorageKind string

const (
	StorageMemory StorageKind = "memory"
	StorageRedis  StorageKind = "redis"
)

// StorageConfig configures the coin pool backend.
type StorageConfig struct {
	Kind  StorageKind `toml:"kind"`
	Redis RedisConfig `toml:"redis"`
}

// RedisConfig configures the redis.Store backend. Only read when
// Storage.Kind is StorageRedis.
type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"key-prefix"`
}

// SignerKind selects which signer.Signer implementation to construct.
type SignerKind string

const (
	SignerLocal   SignerKind = "local"
	SignerSidecar SignerKind = "sidecar"
)

// SignerConfig configures the sponsor signer.
type SignerConfig struct {
	Kind SignerKind `toml:"kind"`
	// LocalKeyFile is accepted in the file but not read: cmd/gasstationd
	// always generates a fresh local keypair at startup.
	LocalKeyFile string `toml:"local-key-file"`
	SidecarURL   string `toml:"sidecar-url"`
}

// ChainConfig configures the chain client.
type ChainConfig struct {
	RPCURL        string `toml:"rpc-url"`
	BasicAuthUser string `toml:"basic-auth-user"`
	BasicAuthPass string `toml:"basic-auth-pass"`
}

// AccessConfig configures the predicate engine.
type AccessConfig struct {
	// RulesFile is a TOML file of access rules, reloadable at runtime via
	// GET /v1/reload_access_controller. Empty means allow everything.
	RulesFile     string `toml:"rules-file"`
	DefaultAction string `toml:"default-action"`
}

// RPCConfig configures the public HTTP surface. Exactly one of
// BearerToken or JWTSecret should be set; JWTSecret takes precedence.
type RPCConfig struct {
	ListenAddr  string `toml:"listen-addr"`
	BearerToken string `toml:"bearer-token"`
	JWTSecret   string `toml:"jwt-secret"`
}

// GasStationConfig is the complete configuration for cmd/gasstationd,
// loaded from a TOML file via Load or built with Default.
type GasStationConfig struct {
	DailyGasCap     uint64        `toml:"daily-gas-cap"`
	ReserveDuration uint64        `toml:"default-reserve-duration-secs"`
	Storage         StorageConfig `toml:"storage"`
	Signer          SignerConfig  `toml:"signer"`
	Chain           ChainConfig   `toml:"chain"`
	Access          AccessConfig  `toml:"access"`
	RPC             RPCConfig     `toml:"rpc"`
}

// Default returns a configuration suitable for local development: an
// in-memory pool, a freshly generated local signer, and no access
// restrictions.
func Default() GasStationConfig {
	return GasStationConfig{
		DailyGasCap:     1_000_000_000,
		ReserveDuration: 60,
		Storage:         StorageConfig{Kind: StorageMemory},
		Signer:          SignerConfig{Kind: SignerLocal},
		Chain:           ChainConfig{RPCURL: "http://127.0.0.1:9000"},
		Access:          AccessConfig{DefaultAction: "allow"},
		RPC:             RPCConfig{ListenAddr: "127.0.0.1:8080"},
	}
}

var tomlSettings = toml.Config{
	NormFieldName: func(_ reflect.Type, key string) string { return key },
	FieldToKey:    func(_ reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field %q is not defined in %s", field, rt.String())
	},
}

// Load reads and parses a TOML configuration file, starting from
// Default() so unset fields keep their defaults.
func Load(path string) (GasStationConfig, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}
