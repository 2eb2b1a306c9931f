package sola

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-kratos/aikit/capability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWallet    = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	testValidator = "CatzoSMUkTRidT5DwBxAC2pEtnwMBTpkCepHkFgZDiqb"
)

// jsonHandler replies with body to every request.
func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func testContext(t *testing.T, mux *http.ServeMux) Context {
	t.Helper()
	return Context{
		WalletPublicKey: testWallet,
		AuthToken:       "token",
		Client:          newTestClient(t, mux, WithRetry(1)),
	}
}

func buildGroup(t *testing.T, b capability.Builder[Context], rc Context) *capability.Group {
	t.Helper()
	g, err := b.Build(rc)
	require.NoError(t, err)
	return g
}

func invoke(t *testing.T, g *capability.Group, name, args string) capability.Result {
	t.Helper()
	c, ok := g.Get(name)
	require.True(t, ok, "capability %s not found", name)
	return c.Execute(context.Background(), args)
}

// data decodes the result payload into a generic map.
func data(t *testing.T, res capability.Result) map[string]any {
	t.Helper()
	require.True(t, res.Success, res.Error)
	b, err := json.Marshal(res.Data)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestBuilders(t *testing.T) {
	rc := testContext(t, http.NewServeMux())
	ids := GroupIDs()
	assert.Equal(t, []string{"token", "nftAnalyst", "lulo", "onChain", "aiProjects", "staking"}, ids)

	builders := Builders()
	require.Len(t, builders, len(ids))
	for i, b := range builders {
		g := buildGroup(t, b, rc)
		assert.Equal(t, ids[i], g.ID)
		assert.NotEmpty(t, g.Name)
		assert.NotEmpty(t, g.Description)
		assert.Positive(t, g.Len())
		for _, c := range g.Capabilities() {
			assert.NotEmpty(t, c.Description, c.Name)
			assert.NotNil(t, c.Parameters, c.Name)
		}
	}
}

func TestBuildRequiresClient(t *testing.T) {
	for _, b := range Builders() {
		_, err := b.Build(Context{AuthToken: "token"})
		require.ErrorIs(t, err, ErrNoClient)
	}
}

func TestConfigValidate(t *testing.T) {
	client, err := NewClient(Config{})
	require.NoError(t, err)
	rc := Context{Client: client}
	require.NoError(t, rc.Data().Validate())
	require.NoError(t, rc.Wallet().Validate())
	require.NoError(t, rc.Index().Validate())

	stale := rc.Wallet()
	stale.Version = ConfigVersion + 1
	require.ErrorIs(t, stale.Validate(), ErrConfigVersion)
}

func TestMissingCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	rc := testContext(t, mux)

	tests := []struct {
		group   capability.Builder[Context]
		name    string
		args    string
		wallet  bool
		message string
	}{
		{TokenGroup(), "getTokenData", `{"token_address":"$SOL"}`, false, msgNoAuthToken},
		{TokenGroup(), "createLimitOrder", `{"action":"BUY","amount":1,"token":"SOL","limitPrice":100}`, false, msgNoAuthToken},
		{TokenGroup(), "createLimitOrder", `{"action":"BUY","amount":1,"token":"SOL","limitPrice":100}`, true, msgNoPublicKey},
		{TokenGroup(), "getLimitOrder", `{}`, true, msgNoPublicKey},
		{TokenGroup(), "topHolders", `{"token_address":"abc"}`, false, msgNoAuthToken},
		{TokenGroup(), "tokenAddress", `{"token_symbol":"SOL"}`, false, msgNoAuthToken},
		{NFTGroup(), "getNFTPrice", `{"nft_name":"Mad Lads"}`, false, msgNoAuthToken},
		{NFTGroup(), "getTrendingNFTs", `{}`, false, msgNoAuthToken},
		{LuloGroup(), "getLuloAssets", `{}`, true, msgNoPublicKey},
		{LuloGroup(), "depositLulo", `{"amount":10,"token":"USDC"}`, false, msgNoAuthToken},
		{LuloGroup(), "withdrawLulo", `{"amount":10,"token":"USDC"}`, true, msgNoPublicKey},
		{OnChainGroup(), "swapTokens", `{"inputTokenAddress":"a","outputTokenAddress":"b","amount":1,"inputTokenTicker":"A","outputTokenTicker":"B"}`, true, msgNoPublicKey},
		{OnChainGroup(), "transferSol", `{"quantity":1,"address":"` + testValidator + `"}`, false, msgNoAuthToken},
		{OnChainGroup(), "transferSpl", `{"amount":1,"token":"x","address":"y","tokenTicker":"X"}`, true, msgNoPublicKey},
		{OnChainGroup(), "walletTokenBalance", `{}`, false, msgNoAuthToken},
		{StakingGroup(), "nativeStake", `{"amount":1,"validatorAddress":"` + testValidator + `"}`, true, msgNoPublicKey},
		{StakingGroup(), "nativeViewStakes", `{"wallet":"` + testWallet + `"}`, false, msgNoAuthToken},
		{StakingGroup(), "nativeCheckWithdrawReady", `{"stakeAccount":"` + testValidator + `"}`, false, msgNoAuthToken},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.message, func(t *testing.T) {
			ctx := rc
			if tt.wallet {
				ctx.WalletPublicKey = ""
			} else {
				ctx.AuthToken = ""
			}
			res := invoke(t, buildGroup(t, tt.group, ctx), tt.name, tt.args)
			assert.False(t, res.Success)
			assert.Equal(t, tt.message, res.Error)
		})
	}
}

func TestInvalidArguments(t *testing.T) {
	rc := testContext(t, http.NewServeMux())
	tests := []struct {
		group capability.Builder[Context]
		name  string
		args  string
	}{
		{TokenGroup(), "createLimitOrder", `{"action":"HOLD","amount":1,"token":"SOL","limitPrice":100}`},
		{LuloGroup(), "depositLulo", `{"amount":10,"token":"BONK"}`},
		{LuloGroup(), "depositLulo", `{"amount":-1,"token":"USDC"}`},
		{StakingGroup(), "getValidators", `{"type":"delegated"}`},
		{StakingGroup(), "nativeUnstake", `{"stakeAccount":"short"}`},
		{AIProjectsGroup(), "trendingAiProjects", `{"category":"volume"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := invoke(t, buildGroup(t, tt.group, rc), tt.name, tt.args)
			assert.False(t, res.Success)
			assert.Contains(t, res.Error, "invalid arguments")
		})
	}
}
