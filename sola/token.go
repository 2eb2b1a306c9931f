package sola

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/go-kratos/aikit/capability"
	"github.com/google/jsonschema-go/jsonschema"
)

var tokenDescriptor = capability.Descriptor{
	ID:   "token",
	Name: "Crypto Tokens",
	Description: "Tools for providing information on crypto tokens inside the Solana Block chain ecosystem " +
		"(realtime token data, top holders, bubblemaps), for placing limitOrders and getting information on placed limitOrders",
}

// TokenGroup returns the builder of the "token" group.
func TokenGroup() capability.Builder[Context] {
	return newBuilder(tokenDescriptor,
		getTokenData,
		createLimitOrder,
		getLimitOrder,
		bubblemap,
		tokenAddress,
		topHolders,
	)
}

type tokenDataInput struct {
	TokenAddress string `json:"token_address" jsonschema:"The exact token contract address, symbol, or name. For symbols provide the $ symbol (e.g., $SOL, $JUP, $BONK)"`
}

func getTokenData(rc Context) (*capability.Capability, error) {
	cfg := rc.Data()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("getTokenData",
		"Get details such as the price, market cap, liquidity, price change, volume of buy and sell",
		func(ctx context.Context, in tokenDataInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			path, query := "data/token/symbol", url.Values{"symbol": {in.TokenAddress}}
			if len(in.TokenAddress) > 35 {
				path, query = "data/token/address", url.Values{"token_address": {in.TokenAddress}}
			}
			var data json.RawMessage
			if err := cfg.Client.Get(ctx, ServiceData, path, query, cfg.AuthToken, &data); err != nil {
				return failure(err, "Failed to fetch token data")
			}
			return capability.Success(data)
		},
		capability.WithParameters(schemaFor[tokenDataInput](func(props map[string]*jsonschema.Schema) {
			props["token_address"].MinLength = length(1)
			props["token_address"].MaxLength = length(100)
		})),
	)
}

type limitOrderInput struct {
	Action     string  `json:"action"`
	Amount     float64 `json:"amount"`
	Token      string  `json:"token"`
	LimitPrice float64 `json:"limitPrice"`
}

type limitOrderParams struct {
	TokenMintA string  `json:"token_mint_a"`
	TokenMintB string  `json:"token_mint_b"`
	PublicKey  string  `json:"public_key"`
	Amount     float64 `json:"amount"`
	LimitPrice float64 `json:"limit_price"`
	Action     string  `json:"action"`
}

func createLimitOrder(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("createLimitOrder",
		"Creates a limit order to buy or sell a specified token at a user-defined price in USD. "+
			"Only use when the user explicitly requests a limit order and not for any other kind of token swap",
		func(ctx context.Context, in limitOrderInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			if cfg.WalletPublicKey == "" {
				return capability.Failure(msgNoPublicKey)
			}
			inputMint := in.Token
			if len(inputMint) <= 35 {
				inputMint = "$" + inputMint
			}
			params := limitOrderParams{
				TokenMintA: inputMint,
				TokenMintB: "$USDC",
				PublicKey:  cfg.WalletPublicKey,
				Amount:     in.Amount,
				LimitPrice: in.LimitPrice,
				Action:     in.Action,
			}
			var resp struct {
				Tx string `json:"tx"`
			}
			if err := cfg.Client.Post(ctx, ServiceWallet, "api/wallet/jup/limit-order/create", params, cfg.AuthToken, &resp); err != nil {
				return capability.Failure("Failed to create limit order")
			}
			if resp.Tx == "" {
				return capability.Failure("Unable to place limit order. Make sure you have enough funds.")
			}
			return capability.Success(map[string]any{
				"type":        "create_limit_order",
				"transaction": resp.Tx,
				"signAndSend": true,
				"details": map[string]any{
					"amount":       in.Amount,
					"input_mint":   inputMint,
					"output_mint":  "USDC",
					"limit_price":  in.LimitPrice,
					"action":       in.Action,
					"params_order": params,
				},
			})
		},
		capability.WithParameters(schemaFor[limitOrderInput](func(props map[string]*jsonschema.Schema) {
			props["action"].Enum = []any{"BUY", "SELL"}
		})),
	)
}

func getLimitOrder(rc Context) (*capability.Capability, error) {
	cfg := rc.Wallet()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("getLimitOrder",
		"Get the active limit orders of the user.",
		func(ctx context.Context, _ struct{}) capability.Result {
			if cfg.WalletPublicKey == "" {
				return capability.Failure(msgNoPublicKey)
			}
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			var data json.RawMessage
			query := url.Values{"address": {cfg.WalletPublicKey}}
			if err := cfg.Client.Get(ctx, ServiceWallet, "api/wallet/jup/limit-order/show", query, cfg.AuthToken, &data); err != nil {
				return capability.Failuref("API error: %s", detail(err))
			}
			return capability.Success(data)
		},
	)
}

type bubblemapInput struct {
	TokenAddress string `json:"token_address" jsonschema:"The token address (contract address) to visualize in the Bubblemap. Must be a valid Solana SPL token address."`
}

func bubblemap(Context) (*capability.Capability, error) {
	return capability.New("bubblemap",
		"Create a Bubblemap visualization for a specific token on the Solana blockchain. Bubblemaps show token ownership distribution, "+
			"helping identify whale accounts, token concentration, and potential wash trading patterns.",
		func(_ context.Context, in bubblemapInput) capability.Result {
			if len(strings.TrimSpace(in.TokenAddress)) < 32 {
				return capability.Failure("Please provide a valid Solana token address for the Bubblemap visualization.")
			}
			return capability.Success(map[string]any{
				"token": strings.TrimPrefix(in.TokenAddress, "$"),
			})
		},
	)
}

type tokenAddressInput struct {
	TokenSymbol string `json:"token_symbol" jsonschema:"The token symbol or name to look up (e.g., \"SOL\", \"BONK\", \"Solana\")."`
}

func tokenAddress(rc Context) (*capability.Capability, error) {
	cfg := rc.Data()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("tokenAddress",
		"Get the token address for a given token symbol or name on the Solana blockchain. "+
			"This tool is useful when you need a token address but the user only provided a token symbol or name.",
		func(ctx context.Context, in tokenAddressInput) capability.Result {
			symbol := strings.TrimSpace(in.TokenSymbol)
			if symbol == "" {
				return capability.Failure("Please provide a valid token symbol.")
			}
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			display := strings.TrimPrefix(symbol, "$")
			var resp struct {
				TokenAddress string `json:"token_address"`
			}
			query := url.Values{"symbol": {"$" + display}}
			if err := cfg.Client.Get(ctx, ServiceData, "data/token/token_address", query, cfg.AuthToken, &resp); err == nil && resp.TokenAddress != "" {
				return tokenAddressResult(display, resp.TokenAddress, "Data Service")
			}
			if address := searchDexScreener(ctx, cfg.Client, display); address != "" {
				return tokenAddressResult(display, address, "DexScreener")
			}
			return capability.Failuref("Could not find token address for %s", display)
		},
	)
}

func tokenAddressResult(symbol, address, source string) capability.Result {
	return capability.Success(map[string]any{
		"type":         "token_address_result",
		"symbol":       symbol,
		"tokenAddress": address,
		"source":       source,
	})
}

type dexPair struct {
	ChainID   string  `json:"chainId"`
	FDV       float64 `json:"fdv"`
	BaseToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
}

// searchDexScreener returns the address of the highest FDV Solana pair whose base token matches ticker.
func searchDexScreener(ctx context.Context, client *Client, ticker string) string {
	var resp struct {
		Pairs []dexPair `json:"pairs"`
	}
	if err := client.Get(ctx, ServiceDexScreener, "latest/dex/search", url.Values{"q": {ticker}}, "", &resp); err != nil {
		return ""
	}
	var pairs []dexPair
	for _, pair := range resp.Pairs {
		if pair.ChainID == "solana" && strings.EqualFold(pair.BaseToken.Symbol, ticker) {
			pairs = append(pairs, pair)
		}
	}
	if len(pairs) == 0 {
		return ""
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].FDV > pairs[j].FDV })
	return pairs[0].BaseToken.Address
}

type topHoldersInput struct {
	TokenAddress string `json:"token_address" jsonschema:"The token address (contract address) to get top holders for. Must be a valid Solana SPL token address."`
}

func topHolders(rc Context) (*capability.Capability, error) {
	cfg := rc.Data()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("topHolders",
		"Get the top holders for a specific token on the Solana blockchain. "+
			"Use this to analyze token distribution, whale concentration, and insider holdings.",
		func(ctx context.Context, in topHoldersInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			var resp struct {
				TopHolders []json.RawMessage `json:"topHolders"`
			}
			query := url.Values{"token_address": {in.TokenAddress}}
			if err := cfg.Client.Get(ctx, ServiceData, "data/token/top_holders", query, cfg.AuthToken, &resp); err != nil || resp.TopHolders == nil {
				return capability.Failure("Failed to fetch top holders information. Please check the token address and try again.")
			}
			return capability.Success(map[string]any{"details": resp.TopHolders})
		},
	)
}
