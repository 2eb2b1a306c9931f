package sola

import (
	"context"
	"net/url"

	"github.com/go-kratos/aikit/capability"
	"github.com/google/jsonschema-go/jsonschema"
)

var luloDescriptor = capability.Descriptor{
	ID:          "lulo",
	Name:        "Lulo",
	Description: "Tools for providing information on Lulo, a decentralized exchange on Solana. Allows users to get their lulo assets, " +
		"withdraw and deposit assets. Only used if an user specifies that they want to operate on their Lulo account.",
}

var luloTokens = []any{"USDT", "USDS", "USDC"}

// LuloGroup returns the builder of the "lulo" group.
func LuloGroup() capability.Builder[Context] {
	return newBuilder(luloDescriptor, getLuloAssets, depositLulo, withdrawLulo)
}

func getLuloAssets(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("getLuloAssets",
		"Retrieves the user's assets, earnings, deposit, and stats from the Lulo platform. Use when the user wants to view their Lulo holdings.",
		func(ctx context.Context, _ struct{}) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			if cfg.WalletPublicKey == "" {
				return capability.Failure(msgNoPublicKey)
			}
			var assets struct {
				DepositValue   float64 `json:"depositValue"`
				InterestEarned float64 `json:"interestEarned"`
			}
			query := url.Values{"owner": {cfg.WalletPublicKey}}
			if err := cfg.Client.Get(ctx, ServiceWallet, "api/wallet/lulo/assets", query, cfg.AuthToken, &assets); err != nil {
				return capability.Failure("Failed to retrieve assets from Lulo platform")
			}
			return capability.Success(map[string]any{
				"type": "lulo_assets",
				"details": map[string]any{
					"depositValue":   assets.DepositValue,
					"interestEarned": assets.InterestEarned,
					"owner":          cfg.WalletPublicKey,
				},
			})
		},
	)
}

type luloInput struct {
	Amount float64 `json:"amount"`
	Token  string  `json:"token"`
}

func luloSchema() *jsonschema.Schema {
	return schemaFor[luloInput](func(props map[string]*jsonschema.Schema) {
		props["amount"].ExclusiveMinimum = positive()
		props["token"].Enum = luloTokens
	})
}

type luloTransactions struct {
	Transactions [][]struct {
		Transaction string `json:"transaction"`
	} `json:"transactions"`
}

// first returns the serialized transactions of the first batch.
func (t luloTransactions) first() []string {
	if len(t.Transactions) == 0 {
		return nil
	}
	var txs []string
	for _, tx := range t.Transactions[0] {
		txs = append(txs, tx.Transaction)
	}
	return txs
}

func depositLulo(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("depositLulo",
		"Deposits stable coins into Lulo Finance. Only use when the user explicitly requests to deposit stable coins into Lulo.",
		func(ctx context.Context, in luloInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			if cfg.WalletPublicKey == "" {
				return capability.Failure(msgNoPublicKey)
			}
			params := map[string]any{
				"owner":         cfg.WalletPublicKey,
				"depositAmount": in.Amount,
				"mintAddress":   Tokens[in.Token].Mint,
			}
			var resp luloTransactions
			if err := cfg.Client.Post(ctx, ServiceWallet, "api/wallet/lulo/deposit", params, cfg.AuthToken, &resp); err != nil || len(resp.first()) == 0 {
				return capability.Failure("Deposit failed. Unable to create transaction.")
			}
			return luloResult(ctx, cfg, "lulo_deposit", in, resp.first())
		},
		capability.WithParameters(luloSchema()),
	)
}

func withdrawLulo(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("withdrawLulo",
		"Withdraws stable coins from Lulo Finance. Only use when the user explicitly requests to withdraw stable coins from Lulo.",
		func(ctx context.Context, in luloInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			if cfg.WalletPublicKey == "" {
				return capability.Failure(msgNoPublicKey)
			}
			params := map[string]any{
				"owner":          cfg.WalletPublicKey,
				"withdrawAmount": in.Amount,
				"mintAddress":    Tokens[in.Token].Mint,
				"withdrawAll":    false,
			}
			var resp luloTransactions
			if err := cfg.Client.Post(ctx, ServiceWallet, "api/wallet/lulo/withdraw", params, cfg.AuthToken, &resp); err != nil || len(resp.first()) == 0 {
				return capability.Failure("Withdrawal failed. Unable to create transaction.")
			}
			return luloResult(ctx, cfg, "lulo_withdraw", in, resp.first())
		},
		capability.WithParameters(luloSchema()),
	)
}

// luloResult pairs the prepared transactions with a recent blockhash for signing.
func luloResult(ctx context.Context, cfg WalletConfig, typ string, in luloInput, txs []string) capability.Result {
	var bh blockhashResponse
	if err := cfg.Client.Get(ctx, ServiceWallet, "api/wallet/blockhash", nil, cfg.AuthToken, &bh); err != nil {
		return capability.Failure("Failed to get recent blockhash")
	}
	transactions := make([]map[string]any, 0, len(txs))
	for _, tx := range txs {
		transactions = append(transactions, map[string]any{
			"serializedTransaction": tx,
			"token":                 in.Token,
			"amount":                in.Amount,
		})
	}
	return capability.Success(map[string]any{
		"type":            typ,
		"transactions":    transactions,
		"recentBlockhash": bh.Blockhash,
		"signAndSend":     true,
		"details": map[string]any{
			"amount": in.Amount,
			"token":  in.Token,
			"owner":  cfg.WalletPublicKey,
		},
	})
}
