package service

import (
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/oracleview/internal/crypto"
	"github.com/alanyoungcy/oracleview/internal/domain"
)

// WalletService exposes the identity the dashboard acts as. The key is
// only read to derive an address.
type WalletService struct {
	wallet domain.Wallet
}

// NewWalletService resolves the wallet address from src. An encrypted key
// file without a password contributes its recorded address. With no key
// configured, a valid demoAddress stands in; otherwise the wallet is
// disconnected.
func NewWalletService(src crypto.KeySource, demoAddress string, logger *slog.Logger) *WalletService {
	addr, err := walletAddress(src)
	switch {
	case err == nil:
		return &WalletService{wallet: domain.Wallet{Address: addr, Connected: true}}
	case !errors.Is(err, crypto.ErrNoKey):
		logger.Warn("wallet_service: key unavailable, wallet disconnected",
			slog.String("error", err.Error()),
		)
		return &WalletService{}
	}

	if common.IsHexAddress(demoAddress) {
		return &WalletService{wallet: domain.Wallet{
			Address:   common.HexToAddress(demoAddress).Hex(),
			Connected: true,
		}}
	}
	return &WalletService{}
}

func walletAddress(src crypto.KeySource) (string, error) {
	if src.RawPrivateKey == "" && src.EncryptedKeyPath != "" && src.KeyPassword == "" {
		return crypto.KeyFileAddress(src.EncryptedKeyPath)
	}
	key, err := crypto.LoadKey(src)
	if err != nil {
		return "", err
	}
	return crypto.Address(key), nil
}

// Wallet returns the current wallet state.
func (s *WalletService) Wallet() domain.Wallet {
	return s.wallet
}
