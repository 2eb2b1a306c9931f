// Package sola provides capability groups backed by the Sola AI services:
// token and NFT analytics, Lulo lending, on-chain transfers and swaps, AI
// project rankings and native staking.
package sola

import (
	"errors"
	"strings"

	"github.com/go-kratos/aikit/capability"
	"github.com/google/jsonschema-go/jsonschema"
)

const (
	msgNoAuthToken = "No auth token provided"
	msgNoPublicKey = "No public key provided"

	lamportsPerSOL = 1_000_000_000
)

// Token is a well-known SPL token mint.
type Token struct {
	Mint     string
	Decimals int
}

// Tokens lists the mints the capabilities resolve by ticker.
var Tokens = map[string]Token{
	"SOL":  {Mint: "So11111111111111111111111111111111111111112", Decimals: 9},
	"USDC": {Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6},
	"SEND": {Mint: "SENDdRQtYMWaQrBroBrJ2Q53fgVuq95CV9UPGEvpCxa", Decimals: 6},
	"JUP":  {Mint: "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN", Decimals: 6},
	"USDS": {Mint: "USDSwr9ApdHk5bvJKMjzff41FfuX8bSxdKcR81vTwcA", Decimals: 6},
	"USDT": {Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6},
	"SOLA": {Mint: "B5UsiUYcTD3PcQa8r2uXcVgRmDL8jUYuXPiYjrY7pump", Decimals: 6},
	"BONK": {Mint: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", Decimals: 6},
	"WIF":  {Mint: "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm", Decimals: 6},
}

var descriptors = []capability.Descriptor{
	tokenDescriptor,
	nftDescriptor,
	luloDescriptor,
	onChainDescriptor,
	aiProjectsDescriptor,
	stakingDescriptor,
}

// Builders returns the builders of every Sola capability group.
func Builders() []capability.Builder[Context] {
	return []capability.Builder[Context]{
		TokenGroup(),
		NFTGroup(),
		LuloGroup(),
		OnChainGroup(),
		AIProjectsGroup(),
		StakingGroup(),
	}
}

// GroupIDs returns the identifiers of every Sola capability group.
func GroupIDs() []string {
	ids := make([]string, 0, len(descriptors))
	for _, desc := range descriptors {
		ids = append(ids, desc.ID)
	}
	return ids
}

// newBuilder rejects a context without a client before binding the factories.
func newBuilder(desc capability.Descriptor, factories ...capability.Factory[Context]) capability.Builder[Context] {
	next := capability.NewBuilder(desc, factories...)
	return capability.BuilderFunc[Context](func(rc Context) (*capability.Group, error) {
		if rc.Client == nil {
			return nil, ErrNoClient
		}
		return next.Build(rc)
	})
}

// schemaFor infers the parameter schema of I and lets edit refine its properties.
// Inference only fails for unsupported Go types, which is a programming error.
func schemaFor[I any](edit func(props map[string]*jsonschema.Schema)) *jsonschema.Schema {
	schema, err := jsonschema.For[I](nil)
	if err != nil {
		panic(err)
	}
	if edit != nil {
		edit(schema.Properties)
	}
	return schema
}

func positive() *float64 {
	v := 0.0
	return &v
}

func length(n int) *int {
	return &n
}

// failure reports the service detail of an API error, or fallback for anything else.
func failure(err error, fallback string) capability.Result {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return capability.Failure(apiErr.Detail())
	}
	return capability.Failure(fallback)
}

// detail returns the service detail of an API error, or the error text.
func detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail()
	}
	return err.Error()
}

// validPublicKey reports whether s looks like a base58 encoded Solana public key.
func validPublicKey(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz", r) {
			return false
		}
	}
	return true
}

type blockhashResponse struct {
	Blockhash string `json:"blockhash"`
}
