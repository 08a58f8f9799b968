package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrOutsideFund is returned when a fund-scoped signer is handed a
// transaction that does not call the fund contract.
var ErrOutsideFund = errors.New("transaction is not a DevFund call")

// Signer holds a signing wallet's key reference. Scoped to a fund with
// ForFund, it only signs zero-value calls into that contract.
type Signer struct {
	wallet *Wallet
	ks     KeystoreBackend
	fund   *common.Address
}

// NewSigner creates an unscoped signer for w whose key lives in ks.
func NewSigner(w *Wallet, ks KeystoreBackend) *Signer {
	return &Signer{wallet: w, ks: ks}
}

// ForFund returns a copy of s that refuses anything but calls to the
// DevFund deployment at address. None of the fund's functions are payable.
func (s *Signer) ForFund(address string) *Signer {
	fund := common.HexToAddress(address)
	return &Signer{wallet: s.wallet, ks: s.ks, fund: &fund}
}

// SignTx signs tx for chainID and returns the RLP bytes for
// eth_sendRawTransaction.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	if s.fund != nil {
		if tx.To() == nil || *tx.To() != *s.fund {
			return nil, fmt.Errorf("%w: recipient is %v, fund is %s", ErrOutsideFund, tx.To(), s.fund.Hex())
		}
		if tx.Value().Sign() != 0 {
			return nil, fmt.Errorf("%w: carries %s wei", ErrOutsideFund, tx.Value())
		}
	}

	key, err := s.key()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed.MarshalBinary()
}

// key loads the private key and checks it still matches the wallet record;
// a keychain entry overwritten outside devfund would otherwise sign as a
// different account.
func (s *Signer) key() (*ecdsa.PrivateKey, error) {
	if s.wallet.Type != TypeSigning {
		return nil, fmt.Errorf("wallet %q is watch-only and cannot sign", s.wallet.Name)
	}
	hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if got := crypto.PubkeyToAddress(key.PublicKey).Hex(); got != s.wallet.Address {
		return nil, fmt.Errorf("key for %q belongs to %s, not %s", s.wallet.Name, got, s.wallet.Address)
	}
	return key, nil
}

// Address returns the wallet's checksummed address.
func (s *Signer) Address() string {
	return s.wallet.Address
}
