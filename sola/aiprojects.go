package sola

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/go-kratos/aikit/capability"
	"github.com/google/jsonschema-go/jsonschema"
)

const maxTrendingProjects = 6

var aiProjectsDescriptor = capability.Descriptor{
	ID:          "aiProjects",
	Name:        "AI Projects",
	Description: "Tools for providing information on the top AI projects and any AI project in general in the Solana Block chain ecosystem",
}

// AIProjectsGroup returns the builder of the "aiProjects" group.
func AIProjectsGroup() capability.Builder[Context] {
	return newBuilder(aiProjectsDescriptor, trendingAiProjects)
}

type trendingInput struct {
	Category string `json:"category,omitempty" jsonschema:"The category to fetch the AI Projects by"`
}

func trendingAiProjects(rc Context) (*capability.Capability, error) {
	cfg := rc.Index()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return capability.New("trendingAiProjects",
		"Search and filter for various trending AI projects in Solana blockchain based on mindshare or ranking",
		func(ctx context.Context, in trendingInput) capability.Result {
			if in.Category == "" {
				in.Category = "mindShare"
			}
			var resp struct {
				Data struct {
					TopTokensOrderByMindShareIn6h []json.RawMessage `json:"topTokensOrderByMindShareIn6h"`
				} `json:"data"`
			}
			query := url.Values{"dataSource": {"AI_INDEX"}}
			if err := cfg.Client.Get(ctx, ServiceGoatIndex, "api/agent/overview", query, "", &resp); err != nil {
				return capability.Failure("Failed to fetch AI projects")
			}
			// the index ranks projects by mindshare only; both categories read the same list
			projects := resp.Data.TopTokensOrderByMindShareIn6h
			if projects == nil {
				return capability.Failure("No data available for the specified category")
			}
			if len(projects) > maxTrendingProjects {
				projects = projects[:maxTrendingProjects]
			}
			return capability.Success(map[string]any{
				"category": in.Category,
				"projects": projects,
			})
		},
		capability.WithParameters(schemaFor[trendingInput](func(props map[string]*jsonschema.Schema) {
			props["category"].Enum = []any{"mindShare", "ranking"}
		})),
	)
}
