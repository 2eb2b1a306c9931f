package sola

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-kratos/aikit/capability"
)

var nftDescriptor = capability.Descriptor{
	ID:          "nftAnalyst",
	Name:        "NFT Analyst",
	Description: "Tools for analyzing NFTs, including getting a NFTs data and the trending NFTs.",
}

// NFTGroup returns the builder of the "nftAnalyst" group.
func NFTGroup() capability.Builder[Context] {
	return newBuilder(nftDescriptor, getNFTPrice, getTrendingNFTs)
}

type nftCollection struct {
	Symbol       string  `json:"symbol"`
	FloorPrice   float64 `json:"floor_price"`
	VolumeAll    float64 `json:"volume_all"`
	AvgPrice24hr float64 `json:"avg_price_24hr"`
	ListedCount  int64   `json:"listed_count"`
}

type nftPriceInput struct {
	NFTName string `json:"nft_name"`
}

func getNFTPrice(rc Context) (*capability.Capability, error) {
	cfg := rc.Data()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("getNFTPrice",
		"Get floor price, volume, and marketplace data for NFT collections on Solana. Use this function when users ask about "+
			"NFT prices, collection stats, floor prices, or trading activity for any Solana NFT collection.",
		func(ctx context.Context, in nftPriceInput) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			var nft nftCollection
			query := url.Values{"nft_symbol": {strings.ToLower(in.NFTName)}}
			if err := cfg.Client.Get(ctx, ServiceData, "data/nft/symbol", query, cfg.AuthToken, &nft); err != nil {
				return capability.Failure("Failed to fetch NFT collection data")
			}
			return capability.Success(map[string]any{
				"type":    "nft_collection_data",
				"details": nft,
			})
		},
	)
}

type trendingNFT struct {
	Name       string  `json:"name"`
	Image      string  `json:"image"`
	FloorPrice float64 `json:"floor_price"`
	Volume24hr float64 `json:"volume_24hr"`
}

func getTrendingNFTs(rc Context) (*capability.Capability, error) {
	cfg := rc.Data()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("getTrendingNFTs",
		"Retrieves the currently trending NFT collections on Solana. Use when the user wants to know what NFTs are currently popular or trending.",
		func(ctx context.Context, _ struct{}) capability.Result {
			if cfg.AuthToken == "" {
				return capability.Failure(msgNoAuthToken)
			}
			var trending []trendingNFT
			if err := cfg.Client.Get(ctx, ServiceData, "data/nft/top", nil, cfg.AuthToken, &trending); err != nil {
				return capability.Failure("Failed to fetch trending NFT collections")
			}
			collections := make([]map[string]any, 0, len(trending))
			for _, nft := range trending {
				collections = append(collections, map[string]any{
					"name":        nft.Name,
					"symbol":      nft.Image,
					"floor_price": nft.FloorPrice,
					"volume_24hr": nft.Volume24hr,
				})
			}
			return capability.Success(map[string]any{
				"type":    "get_trending_nfts",
				"details": map[string]any{"collections": collections},
			})
		},
	)
}
