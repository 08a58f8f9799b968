package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/devfund/internal/chain"
	"github.com/Mohsinsiddi/devfund/internal/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// ErrNotWriteFunction is returned when Send is used on a read function.
var ErrNotWriteFunction = errors.New("not a write function")

// DefaultGasFallback is used when eth_estimateGas fails.
const DefaultGasFallback = uint64(200_000)

// TxSigner signs transactions for one account.
type TxSigner interface {
	Address() string
	SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error)
}

// Sender sends write transactions to the contract.
type Sender struct {
	client      *chain.EVMClient
	desc        *Descriptor
	address     string
	signer      TxSigner
	chainID     *big.Int
	gasFallback uint64
}

// NewSender creates a Sender. address overrides the descriptor's own address
// when non-empty.
func NewSender(client *chain.EVMClient, desc *Descriptor, address string, signer TxSigner, chainID *big.Int) *Sender {
	if address == "" {
		address = desc.Address()
	}
	return &Sender{
		client:      client,
		desc:        desc,
		address:     address,
		signer:      signer,
		chainID:     chainID,
		gasFallback: DefaultGasFallback,
	}
}

// SetGasFallback overrides the gas limit used when estimation fails.
func (s *Sender) SetGasFallback(gas uint64) {
	if gas > 0 {
		s.gasFallback = gas
	}
}

// Calldata validates funcName as a write function and encodes the call.
func (s *Sender) Calldata(funcName string, args ...string) ([]byte, error) {
	fn, err := s.desc.Function(funcName)
	if err != nil {
		return nil, err
	}
	if !fn.IsWriteFunction() {
		return nil, fmt.Errorf("%w: %q (stateMutability: %s)", ErrNotWriteFunction, funcName, fn.StateMutability)
	}
	calldata, err := s.desc.PackCall(funcName, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}
	return calldata, nil
}

// Simulate runs the call through eth_call from the signer's address.
// ok is false with the revert reason when the contract would reject it.
func (s *Sender) Simulate(ctx context.Context, funcName string, args ...string) (ok bool, reason string, err error) {
	calldata, err := s.Calldata(funcName, args...)
	if err != nil {
		return false, "", err
	}
	return s.client.SimulateCall(ctx, s.signer.Address(), s.address, calldata)
}

// Send calls a write function and broadcasts the transaction.
// Returns the transaction hash.
func (s *Sender) Send(ctx context.Context, funcName string, args ...string) (string, error) {
	calldata, err := s.Calldata(funcName, args...)
	if err != nil {
		return "", err
	}

	from := s.signer.Address()
	log := logging.L().WithFields(logrus.Fields{
		"contract": s.address,
		"function": funcName,
		"from":     from,
		"chain_id": s.chainID,
	})

	gas, err := s.client.EstimateGas(ctx, from, s.address, calldata)
	if err != nil {
		log.WithError(err).Warnf("gas estimation failed, using fallback %d", s.gasFallback)
		gas = s.gasFallback
	}

	gasPrice, err := s.client.GasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("getting gas price: %w", err)
	}

	nonce, err := s.client.PendingNonce(ctx, from)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}

	to := common.HexToAddress(s.address)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &to,
		Value:     big.NewInt(0),
		Data:      calldata,
	})

	raw, err := s.signer.SignTx(tx, s.chainID)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}

	hash, err := s.client.SendRawTransaction(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("broadcasting transaction: %w", err)
	}
	log.WithFields(logrus.Fields{"tx": hash, "nonce": nonce, "gas": gas}).Info("transaction sent")
	return hash, nil
}
