package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet holds the signing credential for the funding transactions the bot
// broadcasts on its own behalf.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	signer     types.Signer
}

func New(privateKeyHex string, chainID *big.Int) (*Wallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &Wallet{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		signer:     types.LatestSignerForChainID(chainID),
	}, nil
}

func (w *Wallet) Address() common.Address {
	return w.address
}

func (w *Wallet) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, w.signer, w.privateKey)
}
