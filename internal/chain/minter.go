// Package chain holds the on-chain collaborators: the mint transaction
// sender and the NFT indexing client.
package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/pkg/logger"
)

// DefaultGasLimit matches the fixed gas limit of the mint call.
const DefaultGasLimit = 250000

// quoteNFTABI covers the single contract function this service calls.
const quoteNFTABI = `[{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"string","name":"uri","type":"string"}],"name":"mintQuote","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}]`

// MinterConfig is the on-chain configuration. Values may be absent;
// minting then fails with a config error at call time.
type MinterConfig struct {
	RPCURL          string
	ContractAddress string
	PrivateKeyHex   string
	ChainID         int64
	GasLimit        uint64
}

// Minter submits mint transactions. The call is fire-and-confirm:
// acceptance by the node is success, confirmation depth is someone
// else's problem.
type Minter struct {
	cfg    MinterConfig
	abi    abi.ABI
	logger *logger.Logger
}

// NewMinter creates a minter. The ABI is static, so parsing it cannot
// fail at runtime once this returns.
func NewMinter(cfg MinterConfig, log *logger.Logger) (*Minter, error) {
	parsed, err := abi.JSON(strings.NewReader(quoteNFTABI))
	if err != nil {
		return nil, err
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}
	return &Minter{cfg: cfg, abi: parsed, logger: log}, nil
}

// CheckConfig reports whether the minter is configured well enough to
// attempt a transaction. It performs no I/O, so callers can use it to
// fail fast before spending irreversible work.
func (m *Minter) CheckConfig() error {
	switch {
	case m.cfg.RPCURL == "":
		return model.E(model.CodeConfigMissing, "mint", "blockchain RPC endpoint is not configured", nil)
	case m.cfg.ContractAddress == "":
		return model.E(model.CodeConfigMissing, "mint", "quote NFT contract address is not configured", nil)
	case !common.IsHexAddress(m.cfg.ContractAddress):
		return model.E(model.CodeConfigMissing, "mint", "quote NFT contract address is invalid", nil)
	case m.cfg.PrivateKeyHex == "":
		return model.E(model.CodeConfigMissing, "mint", "minter signing key is not configured", nil)
	case m.cfg.ChainID == 0:
		return model.E(model.CodeConfigMissing, "mint", "chain ID is not configured", nil)
	}
	return nil
}

// Mint signs and submits mintQuote(owner, metadataUri) and returns the
// transaction hash.
func (m *Minter) Mint(ctx context.Context, req model.MintRequest) (string, error) {
	if err := m.CheckConfig(); err != nil {
		return "", err
	}
	if req.Owner == "" || req.MetadataURI == "" {
		return "", model.E(model.CodeMintPrecondition, "mint", "mint request is incomplete", nil)
	}
	if !common.IsHexAddress(req.Owner) {
		return "", model.E(model.CodeMintPrecondition, "mint", "owner is not a valid address", nil)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(m.cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return "", model.E(model.CodeMintRejected, "mint", "minter signing key is invalid", err)
	}

	client, err := ethclient.DialContext(ctx, m.cfg.RPCURL)
	if err != nil {
		return "", model.E(model.CodeMintRejected, "mint", "cannot reach blockchain RPC", err)
	}
	defer client.Close()

	from := crypto.PubkeyToAddress(key.PublicKey)
	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", model.E(model.CodeMintRejected, "mint", "failed to fetch nonce", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", model.E(model.CodeMintRejected, "mint", "failed to fetch gas price", err)
	}

	calldata, err := m.abi.Pack("mintQuote", common.HexToAddress(req.Owner), req.MetadataURI)
	if err != nil {
		return "", model.E(model.CodeMintRejected, "mint", "failed to encode mint call", err)
	}

	contract := common.HexToAddress(m.cfg.ContractAddress)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &contract,
		Value:    big.NewInt(0),
		Gas:      m.cfg.GasLimit,
		GasPrice: gasPrice,
		Data:     calldata,
	})

	chainID := big.NewInt(m.cfg.ChainID)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return "", model.E(model.CodeMintRejected, "mint", "failed to sign transaction", err)
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", model.E(model.CodeMintRejected, "mint", "transaction rejected by node", err)
	}

	m.logger.Info("mint transaction submitted",
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.String("owner", req.Owner),
		zap.Uint64("nonce", nonce),
	)

	return signed.Hash().Hex(), nil
}

// ValidOwner reports whether s is a plausible wallet address.
func ValidOwner(s string) bool {
	return common.IsHexAddress(s)
}
