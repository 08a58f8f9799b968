package config

import "time"

// GasLimitContractCall is the EstimateGas fallback for DevFund write calls.
// addDevelopers with long lists can exceed it; raise gas_limit_fallback then.
const GasLimitContractCall = uint64(200_000)

const (
	RPCSelectTimeout = 10 * time.Second // endpoint probing before each command
	TxConfirmTimeout = 3 * time.Minute  // default receipt wait after send
)

// Environment overrides.
const (
	EnvPrefix = "DEVFUND"
	DirEnvVar = "DEVFUND_CONFIG_DIR"
)

const (
	configFile      = "config.json"
	walletsFile     = "wallets.json"
	deploymentsFile = "deployments.json"
	keysDir         = "keys"
	LogFile         = "devfund.log"
)
