package sola

import (
	"context"
	_ "embed"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-kratos/aikit/capability"
	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

// stakeAccountSpace is the size in bytes of a stake account.
const stakeAccountSpace = 200

var stakingDescriptor = capability.Descriptor{
	ID:          "staking",
	Name:        "Staking",
	Description: "Tools for staking operations on Solana. Includes native SOL staking, unstaking, withdrawal, and validator information.",
}

// StakingGroup returns the builder of the "staking" group.
func StakingGroup() capability.Builder[Context] {
	return newBuilder(stakingDescriptor,
		nativeStake,
		nativeUnstake,
		nativeViewStakes,
		getValidators,
		nativeWithdraw,
		nativeCheckWithdrawable,
		nativeCheckWithdrawReady,
	)
}

// Validator is a known stake validator.
type Validator struct {
	Name    string `yaml:"name" json:"name"`
	Address string `yaml:"address" json:"address"`
	Type    string `yaml:"type" json:"type"`
}

//go:embed validators.yaml
var validatorsYAML []byte

// Validators returns the built-in validator list.
var Validators = sync.OnceValues(func() ([]Validator, error) {
	var doc struct {
		Validators []Validator `yaml:"validators"`
	}
	if err := yaml.Unmarshal(validatorsYAML, &doc); err != nil {
		return nil, err
	}
	return doc.Validators, nil
})

type validatorsInput struct {
	Type string `json:"type"`
}

func getValidators(Context) (*capability.Capability, error) {
	return capability.New("getValidators",
		"Get available validators for a specific staking type (native or liquid)",
		func(_ context.Context, in validatorsInput) capability.Result {
			all, err := Validators()
			if err != nil {
				return capability.Failuref("Failed to load validators: %v", err)
			}
			validators := make([]Validator, 0, len(all))
			for _, v := range all {
				if v.Type == in.Type {
					validators = append(validators, v)
				}
			}
			return capability.Success(map[string]any{"validators": validators})
		},
		capability.WithParameters(schemaFor[validatorsInput](func(props map[string]*jsonschema.Schema) {
			props["type"].Enum = []any{"native", "liquid"}
		})),
	)
}

type stakeInput struct {
	Amount           float64 `json:"amount"`
	ValidatorAddress string  `json:"validatorAddress"`
}

func nativeStake(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("nativeStake",
		"Stake native SOL to a validator. Note: It is recommended to verify or get the native validator address "+
			"using the **getValidators** tool before using this tool.",
		func(ctx context.Context, in stakeInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			if cfg.WalletPublicKey == "" {
				return capability.Failure(msgNoPublicKey)
			}
			if !validPublicKey(in.ValidatorAddress) {
				return capability.Failuref("Invalid validator address %q", in.ValidatorAddress)
			}
			var rent struct {
				RentExemption int64 `json:"rentExemption"`
			}
			query := url.Values{"space": {strconv.Itoa(stakeAccountSpace)}}
			if err := cfg.Client.Get(ctx, ServiceNextJS, "api/wallet/rent-exemption", query, cfg.AuthToken, &rent); err != nil {
				return capability.Failure("Failed to get rent exemption")
			}
			blockhash, ok := stakingBlockhash(ctx, cfg)
			if !ok {
				return capability.Failure("Failed to get recent blockhash")
			}
			return capability.Success(map[string]any{
				"action":          "stake",
				"signAndSend":     true,
				"recentBlockhash": blockhash,
				"details": map[string]any{
					"amount":    in.Amount,
					"validator": in.ValidatorAddress,
					"owner":     cfg.WalletPublicKey,
					"lamports":  rent.RentExemption + int64(in.Amount*lamportsPerSOL),
				},
			})
		},
		capability.WithParameters(schemaFor[stakeInput](func(props map[string]*jsonschema.Schema) {
			props["amount"].ExclusiveMinimum = positive()
			props["validatorAddress"].MinLength = length(32)
			props["validatorAddress"].MaxLength = length(44)
		})),
	)
}

type stakeAccountInput struct {
	StakeAccount string `json:"stakeAccount"`
}

func stakeAccountSchema() *jsonschema.Schema {
	return schemaFor[stakeAccountInput](func(props map[string]*jsonschema.Schema) {
		props["stakeAccount"].MinLength = length(32)
		props["stakeAccount"].MaxLength = length(44)
	})
}

type stakeAccount struct {
	Pubkey            string  `json:"pubkey"`
	Lamports          int64   `json:"lamports"`
	Validator         *string `json:"validator"`
	State             string  `json:"state"`
	Epoch             int64   `json:"epoch"`
	DeactivationEpoch *int64  `json:"deactivationEpoch"`
}

func getStakeAccount(ctx context.Context, cfg WalletConfig, address string) (stakeAccount, error) {
	var acc stakeAccount
	err := cfg.Client.Get(ctx, ServiceNextJS, "api/wallet/stake-account", url.Values{"address": {address}}, cfg.AuthToken, &acc)
	return acc, err
}

func stakingBlockhash(ctx context.Context, cfg WalletConfig) (string, bool) {
	var bh blockhashResponse
	if err := cfg.Client.Get(ctx, ServiceNextJS, "api/wallet/blockhash", nil, cfg.AuthToken, &bh); err != nil {
		return "", false
	}
	return bh.Blockhash, true
}

func nativeUnstake(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("nativeUnstake",
		"Unstake native SOL from a validator. Note: It is recommended to verify or get the native stake account "+
			"using the **getValidators** tool before using this tool.",
		func(ctx context.Context, in stakeAccountInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			if cfg.WalletPublicKey == "" {
				return capability.Failure(msgNoPublicKey)
			}
			blockhash, ok := stakingBlockhash(ctx, cfg)
			if !ok {
				return capability.Failure("Failed to get recent blockhash")
			}
			return capability.Success(map[string]any{
				"action":          "deactivate",
				"signAndSend":     true,
				"recentBlockhash": blockhash,
				"details": map[string]any{
					"stakeAccount": in.StakeAccount,
					"authority":    cfg.WalletPublicKey,
				},
			})
		},
		capability.WithParameters(stakeAccountSchema()),
	)
}

func nativeWithdraw(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("nativeWithdraw",
		"Withdraw unstaked SOL from a deactivated stake account. Note: It is recommended to verify or get the native stake account "+
			"using the **getValidators** tool before using this tool.",
		func(ctx context.Context, in stakeAccountInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			if cfg.WalletPublicKey == "" {
				return capability.Failure(msgNoPublicKey)
			}
			acc, err := getStakeAccount(ctx, cfg, in.StakeAccount)
			if err != nil {
				return capability.Failure("Failed to get stake account info")
			}
			if acc.Lamports <= 0 {
				return capability.Failure("No SOL available to withdraw")
			}
			blockhash, ok := stakingBlockhash(ctx, cfg)
			if !ok {
				return capability.Failure("Failed to get recent blockhash")
			}
			return capability.Success(map[string]any{
				"action":          "withdraw",
				"signAndSend":     true,
				"recentBlockhash": blockhash,
				"details": map[string]any{
					"stakeAccount":    in.StakeAccount,
					"recipient":       cfg.WalletPublicKey,
					"lamports":        acc.Lamports,
					"withdrawnAmount": float64(acc.Lamports) / lamportsPerSOL,
				},
			})
		},
		capability.WithParameters(stakeAccountSchema()),
	)
}

type viewStakesInput struct {
	Wallet string `json:"wallet"`
}

func nativeViewStakes(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("nativeViewStakes",
		"View active SOL staking details for a given wallet address. Helpful when user wants to check is staking balance.",
		func(ctx context.Context, in viewStakesInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			var resp struct {
				Accounts []stakeAccount `json:"accounts"`
			}
			query := url.Values{"address": {in.Wallet}}
			if err := cfg.Client.Get(ctx, ServiceNextJS, "api/wallet/stake-account", query, cfg.AuthToken, &resp); err != nil {
				return capability.Failure("Failed to fetch stake accounts from API")
			}
			stakes := make([]map[string]any, 0, len(resp.Accounts))
			var total float64
			for _, acc := range resp.Accounts {
				amount := float64(acc.Lamports) / lamportsPerSOL
				validator := ""
				if acc.Validator != nil {
					validator = *acc.Validator
				}
				stakes = append(stakes, map[string]any{
					"stakeAccount": acc.Pubkey,
					"amount":       amount,
					"validator":    validator,
					"status":       acc.State,
					"epoch":        acc.Epoch,
				})
				total += amount
			}
			return capability.Success(map[string]any{
				"stakes":      stakes,
				"totalStaked": total,
			})
		},
		capability.WithParameters(schemaFor[viewStakesInput](func(props map[string]*jsonschema.Schema) {
			props["wallet"].MinLength = length(32)
			props["wallet"].MaxLength = length(44)
		})),
	)
}

func nativeCheckWithdrawable(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("nativeCheckWithdrawable",
		"Check the withdrawable amount (in SOL) from the given stake account. Note: It is recommended to verify or get the native stake account "+
			"using the **getValidators** tool before using this tool.",
		func(ctx context.Context, in stakeAccountInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			acc, err := getStakeAccount(ctx, cfg, in.StakeAccount)
			if err != nil {
				return capability.Failure("Failed to get stake account info")
			}
			return capability.Success(map[string]any{
				"stakeAccount":       in.StakeAccount,
				"withdrawableAmount": float64(acc.Lamports) / lamportsPerSOL,
			})
		},
		capability.WithParameters(stakeAccountSchema()),
	)
}

func nativeCheckWithdrawReady(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("nativeCheckWithdrawReady",
		"Check if a stake account is ready for withdrawal. Note: It is recommended to verify or get the native stake account "+
			"using the **getValidators** tool before using this tool.",
		func(ctx context.Context, in stakeAccountInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			acc, err := getStakeAccount(ctx, cfg, in.StakeAccount)
			if err != nil {
				return capability.Failure("Failed to get stake account info")
			}
			return capability.Success(map[string]any{
				"stakeAccount":      in.StakeAccount,
				"isReady":           acc.State == "inactive" && acc.DeactivationEpoch != nil,
				"deactivationEpoch": acc.DeactivationEpoch,
			})
		},
		capability.WithParameters(stakeAccountSchema()),
	)
}
