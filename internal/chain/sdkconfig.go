package chain

import (
	"errors"
	"sync"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Thread-safe SDK configuration using sync.Once
var sdkConfigOnce sync.Once
var sdkConfigError error

// ConfigureSDK sets the global bech32 account prefix and seals the SDK
// config. Safe to call repeatedly; only the first call takes effect.
func ConfigureSDK(bech32Prefix string) error {
	sdkConfigOnce.Do(func() {
		if bech32Prefix == "" {
			sdkConfigError = errors.New("bech32 prefix cannot be empty")
			return
		}

		cfg := sdk.GetConfig()
		cfg.SetBech32PrefixForAccount(bech32Prefix, bech32Prefix+"pub")
		cfg.SetBech32PrefixForValidator(bech32Prefix+"valoper", bech32Prefix+"valoperpub")
		cfg.SetBech32PrefixForConsensusNode(bech32Prefix+"valcons", bech32Prefix+"valconspub")
		cfg.Seal()
	})
	return sdkConfigError
}
