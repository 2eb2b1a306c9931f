package sola

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-kratos/aikit/capability"
	"github.com/google/jsonschema-go/jsonschema"
)

var onChainDescriptor = capability.Descriptor{
	ID:          "onChain",
	Name:        "OnChain",
	Description: "Tools for on-chain actions. Includes swapping tokens, transferring tokens etc.",
}

// OnChainGroup returns the builder of the "onChain" group.
func OnChainGroup() capability.Builder[Context] {
	return newBuilder(onChainDescriptor,
		swapTokens,
		transferSol,
		transferSpl,
		resolveSnsName,
		walletTokenBalance,
	)
}

type swapInput struct {
	InputTokenAddress  string  `json:"inputTokenAddress" jsonschema:"Token Address to swap from"`
	OutputTokenAddress string  `json:"outputTokenAddress" jsonschema:"Token Address to swap to"`
	Amount             float64 `json:"amount" jsonschema:"The amount for the swap. If swapType is EXACT_IN, this is the amount of tokenA. If swapType is EXACT_OUT, this is the amount of tokenB. If swapType is EXACT_DOLLAR, this is the dollar amount to swap. Must be greater than 0."`
	SwapType           string  `json:"swapType,omitempty" jsonschema:"The type of swap: EXACT_IN specifies the amount of tokenA being swapped, EXACT_OUT specifies the amount of tokenB to receive, and EXACT_DOLLAR specifies the dollar amount to be swapped"`
	InputTokenTicker   string  `json:"inputTokenTicker" jsonschema:"Token Ticker to swap from"`
	OutputTokenTicker  string  `json:"outputTokenTicker" jsonschema:"Token Ticker to swap to"`
}

type swapParams struct {
	InputMint         string  `json:"input_mint"`
	OutputMint        string  `json:"output_mint"`
	Amount            float64 `json:"amount"`
	SwapMode          string  `json:"swap_mode"`
	PublicKey         string  `json:"public_key"`
	PriorityFeeNeeded bool    `json:"priority_fee_needed"`
}

func swapTokens(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("swapTokens",
		"Swaps a specified amount of one token for another token using Jupiter. Use this for all token swap operations except limit orders.",
		func(ctx context.Context, in swapInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			if cfg.WalletPublicKey == "" {
				return capability.Failure(msgNoPublicKey)
			}
			if in.SwapType == "" {
				in.SwapType = "EXACT_IN"
			}
			params := swapParams{
				InputMint:  in.InputTokenAddress,
				OutputMint: in.OutputTokenAddress,
				Amount:     in.Amount,
				SwapMode:   in.SwapType,
				PublicKey:  cfg.WalletPublicKey,
			}
			var resp struct {
				Transaction string  `json:"transaction"`
				OutAmount   float64 `json:"outAmount"`
				PriorityFee float64 `json:"priorityFee"`
			}
			if err := cfg.Client.Post(ctx, ServiceWallet, "api/wallet/jup/swap", params, cfg.AuthToken, &resp); err != nil {
				return capability.Failure("Failed to create swap transaction")
			}
			if resp.Transaction == "" {
				return capability.Failure("Unable to prepare swap. Make sure you have enough funds.")
			}
			if _, err := base64.StdEncoding.DecodeString(resp.Transaction); err != nil {
				return capability.Failure("Error processing transaction data")
			}
			return capability.Success(map[string]any{
				"transaction": resp.Transaction,
				"signAndSend": true,
				"details": map[string]any{
					"input_mint":  in.InputTokenAddress,
					"output_mint": in.OutputTokenAddress,
					"amount":      in.Amount,
					"outAmount":   resp.OutAmount,
					"priorityFee": resp.PriorityFee,
					"inputParams": params,
					"tickers": map[string]string{
						"inputTokenTicker":  in.InputTokenTicker,
						"outputTokenTicker": in.OutputTokenTicker,
					},
				},
			})
		},
		capability.WithParameters(schemaFor[swapInput](func(props map[string]*jsonschema.Schema) {
			props["amount"].ExclusiveMinimum = positive()
			props["swapType"].Enum = []any{"EXACT_IN", "EXACT_OUT", "EXACT_DOLLAR"}
		})),
	)
}

type transferSolInput struct {
	Quantity float64 `json:"quantity" jsonschema:"Amount of SOL (Solana) to transfer. This value should be in SOL, not lamports."`
	Address  string  `json:"address" jsonschema:"Recipient wallet address or a .sol domain."`
}

func transferSol(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("transferSol",
		"Transfers SOL (Solana) to a recipient using either a wallet address or a .sol domain. "+
			"Do not modify or autocorrect .sol domains, as they are arbitrary and may not have meaningful words.",
		func(ctx context.Context, in transferSolInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			if cfg.WalletPublicKey == "" {
				return capability.Failure(msgNoPublicKey)
			}
			recipient := in.Address
			if strings.HasSuffix(strings.ToLower(recipient), ".sol") {
				address, err := resolveDomain(ctx, cfg.Client, strings.ToLower(recipient))
				if err != nil {
					return capability.Failuref("Unable to prepare SOL transfer: %s", detail(err))
				}
				recipient = address
			}
			if !validPublicKey(recipient) {
				return capability.Failuref("Unable to prepare SOL transfer: invalid recipient address %q", in.Address)
			}
			var bh blockhashResponse
			if err := cfg.Client.Get(ctx, ServiceWallet, "api/wallet/blockhash", nil, cfg.AuthToken, &bh); err != nil {
				return capability.Failure("Failed to get recent blockhash")
			}
			return capability.Success(map[string]any{
				"signAndSend": true,
				"details": map[string]any{
					"senderAddress":    cfg.WalletPublicKey,
					"recipientAddress": recipient,
					"amount":           in.Quantity,
					"lamports":         int64(in.Quantity * lamportsPerSOL),
					"recentBlockhash":  bh.Blockhash,
				},
			})
		},
		capability.WithParameters(schemaFor[transferSolInput](func(props map[string]*jsonschema.Schema) {
			props["quantity"].ExclusiveMinimum = positive()
		})),
	)
}

type transferSplInput struct {
	Amount      float64 `json:"amount" jsonschema:"Amount of the token to send."`
	Token       string  `json:"token" jsonschema:"The token that the user wants to send."`
	Address     string  `json:"address" jsonschema:"Recipient wallet address or .sol domain."`
	TokenTicker string  `json:"tokenTicker" jsonschema:"The ticker symbol of the token."`
}

func transferSpl(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("transferSpl",
		"Transfers SPL tokens (non-SOL) to an address or a .sol domain. "+
			"Do not autocorrect or modify .sol domains, as they are arbitrary and may not have meaningful words.",
		func(ctx context.Context, in transferSplInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			if cfg.WalletPublicKey == "" {
				return capability.Failure(msgNoPublicKey)
			}
			params := map[string]any{
				"senderAddress":    cfg.WalletPublicKey,
				"recipientAddress": in.Address,
				"tokenMint":        in.Token,
				"amount":           in.Amount,
			}
			var resp struct {
				SerializedTransaction string `json:"serializedTransaction"`
			}
			if err := cfg.Client.Post(ctx, ServiceWallet, "api/wallet/prepareSplTransfer", params, cfg.AuthToken, &resp); err != nil {
				return capability.Failure("Failed to prepare SPL transfer")
			}
			if resp.SerializedTransaction == "" {
				return capability.Failure("Unable to prepare transfer. Make sure you have enough funds.")
			}
			if _, err := base64.StdEncoding.DecodeString(resp.SerializedTransaction); err != nil {
				return capability.Failure("Error processing transaction data")
			}
			return capability.Success(map[string]any{
				"transaction": resp.SerializedTransaction,
				"signAndSend": true,
				"details": map[string]any{
					"senderAddress":    cfg.WalletPublicKey,
					"recipientAddress": in.Address,
					"tokenMint":        in.Token,
					"amount":           in.Amount,
					"tokenTicker":      in.TokenTicker,
				},
			})
		},
	)
}

type resolveSnsInput struct {
	Domain string `json:"domain" jsonschema:"The .sol domain name to resolve (e.g., \"example.sol\")."`
}

func resolveSnsName(rc Context) (*capability.Capability, error) {
	cfg := rc.Index()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("resolveSnsName",
		"Resolve a Solana Name Service (SNS) domain (like \"example.sol\") to a wallet address. "+
			"Use this when the user provides a .sol domain instead of a wallet address.",
		func(ctx context.Context, in resolveSnsInput) capability.Result {
			domain := strings.ToLower(strings.TrimSpace(in.Domain))
			if !strings.HasSuffix(domain, ".sol") || len(domain) < 5 {
				return capability.Failuref("%q is not a valid .sol domain name. It should be in the format \"name.sol\"", domain)
			}
			address, err := resolveDomain(ctx, cfg.Client, domain)
			if err != nil {
				msg := detail(err)
				if strings.Contains(msg, "not found") || strings.Contains(msg, "not registered") {
					return capability.Failuref("The domain %q does not exist or is not registered.", in.Domain)
				}
				return capability.Failuref("Failed to resolve domain: %s", msg)
			}
			return capability.Success(map[string]any{
				"domain":        domain,
				"walletAddress": address,
				"source":        "Solana Name Service",
			})
		},
	)
}

func resolveDomain(ctx context.Context, client *Client, domain string) (string, error) {
	var resp struct {
		Address string `json:"address"`
	}
	if err := client.Get(ctx, ServiceNextJS, "api/wallet/resolve-domain", url.Values{"domain": {domain}}, "", &resp); err != nil {
		return "", err
	}
	if resp.Address == "" {
		return "", fmt.Errorf("domain %s not found", domain)
	}
	return resp.Address, nil
}

type tokenBalanceInput struct {
	WalletAddress        string  `json:"walletAddress,omitempty" jsonschema:"Solana wallet address to check token balances for. If not provided, uses the connected wallet."`
	IncludeNativeBalance *bool   `json:"includeNativeBalance,omitempty" jsonschema:"Whether to include the native SOL balance in the results"`
	MinTokenAmount       float64 `json:"minTokenAmount,omitempty" jsonschema:"Minimum token amount to include in results (filters out dust)"`
}

type tokenBalance struct {
	Mint     string  `json:"mint"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Decimals int     `json:"decimals"`
	LogoURI  string  `json:"logoURI,omitempty"`
	UIAmount float64 `json:"uiAmount"`
}

func walletTokenBalance(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("walletTokenBalance",
		"Fetches token balances for a Solana wallet using Helius API. Returns a list of tokens owned by the wallet including amounts and metadata.",
		func(ctx context.Context, in tokenBalanceInput) capability.Result {
			wallet := in.WalletAddress
			if wallet == "" {
				wallet = cfg.WalletPublicKey
			}
			if wallet == "" {
				return capability.Failure("No wallet address provided and no wallet connected")
			}
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			var resp struct {
				Tokens        []tokenBalance `json:"tokens"`
				NativeBalance float64        `json:"nativeBalance"`
			}
			query := url.Values{"address": {wallet}}
			if err := cfg.Client.Get(ctx, ServiceWallet, "api/wallet/token-balances", query, cfg.AuthToken, &resp); err != nil {
				return capability.Failuref("Failed to fetch token balances: %s", detail(err))
			}
			tokens := make([]map[string]any, 0, len(resp.Tokens)+1)
			if (in.IncludeNativeBalance == nil || *in.IncludeNativeBalance) && resp.NativeBalance > 0 {
				tokens = append(tokens, map[string]any{
					"mint":     Tokens["SOL"].Mint,
					"symbol":   "SOL",
					"name":     "Solana",
					"amount":   resp.NativeBalance / lamportsPerSOL,
					"decimals": Tokens["SOL"].Decimals,
				})
			}
			for _, token := range resp.Tokens {
				if token.UIAmount < in.MinTokenAmount {
					continue
				}
				symbol, name := token.Symbol, token.Name
				if symbol == "" {
					symbol = "Unknown"
				}
				if name == "" {
					name = "Unknown Token"
				}
				tokens = append(tokens, map[string]any{
					"mint":     token.Mint,
					"symbol":   symbol,
					"name":     name,
					"amount":   token.UIAmount,
					"decimals": token.Decimals,
					"logoURI":  token.LogoURI,
				})
			}
			return capability.Success(map[string]any{
				"walletAddress": wallet,
				"tokens":        tokens,
			})
		},
	)
}
