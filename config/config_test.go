package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/subdarkdex/subdex-parachain/domain/assets"
)

const testAccount = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
chain:
  para_id: 100
genesis:
  next_asset_id: 1
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Node.GRPCListenAddr != "0.0.0.0:50051" {
		t.Fatalf("grpc addr default: got %q", cfg.Node.GRPCListenAddr)
	}
	if cfg.Node.PoolCapacity != 4096 {
		t.Fatalf("pool capacity default: got %d", cfg.Node.PoolCapacity)
	}
	if cfg.Chain.Decimals != 12 {
		t.Fatalf("decimals default: got %d", cfg.Chain.Decimals)
	}
	if cfg.Chain.MinimumPeriodMS != 1500 {
		t.Fatalf("minimum period default: got %d", cfg.Chain.MinimumPeriodMS)
	}
	if cfg.Feed.EventsTopic != "subdex.events" {
		t.Fatalf("events topic default: got %q", cfg.Feed.EventsTopic)
	}
}

func TestGenesisAmountsScaleToPlancks(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
chain:
  para_id: 100
genesis:
  next_asset_id: 5
  balances:
    - account: `+testAccount+`
      asset: main
      amount: "1.5"
    - account: `+testAccount+`
      asset: parachain/2
      amount: "42"
  pairs:
    - base: parachain/2
      quote: main
`))
	if err != nil {
		t.Fatal(err)
	}

	g, err := cfg.RuntimeGenesis()
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Balances) != 2 {
		t.Fatalf("balances: got %d", len(g.Balances))
	}
	if g.Balances[0].Amount != 1_500_000_000_000 {
		t.Fatalf("1.5 at 12 decimals: got %d plancks", g.Balances[0].Amount)
	}
	if g.Balances[1].Asset != assets.Parachain(2) || g.Balances[1].Amount != 42_000_000_000_000 {
		t.Fatalf("parachain balance: got %v %d", g.Balances[1].Asset, g.Balances[1].Amount)
	}
	if len(g.Pairs) != 1 || !g.Pairs[0].Quote.IsMain() {
		t.Fatalf("pairs: got %+v", g.Pairs)
	}
	if g.NextAssetID != 5 {
		t.Fatalf("next asset id: got %d", g.NextAssetID)
	}
}

func TestFeeRateBecomesExactRational(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
chain:
  para_id: 100
  fee:
    rate: "0.003"
    treasury: `+testAccount+`
genesis:
  next_asset_id: 1
`))
	if err != nil {
		t.Fatal(err)
	}
	g, err := cfg.RuntimeGenesis()
	if err != nil {
		t.Fatal(err)
	}
	if !g.Fee.Enabled {
		t.Fatal("fee should be enabled")
	}
	if g.Fee.Num != 3 || g.Fee.Den != 1000 {
		t.Fatalf("rate 0.003: got %d/%d", g.Fee.Num, g.Fee.Den)
	}
	want, _ := assets.ParseAccountID(testAccount)
	if g.Fee.Treasury != want {
		t.Fatalf("treasury: got %s", g.Fee.Treasury.Hex())
	}
}

func TestLoadRejectsBadSpecs(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "relay para id",
			yaml: "chain:\n  para_id: 0\n",
			want: "reserved for the relay",
		},
		{
			name: "sub-planck amount",
			yaml: `
chain:
  para_id: 100
  decimals: 2
genesis:
  balances:
    - account: ` + testAccount + `
      asset: main
      amount: "0.001"
`,
			want: "decimal places",
		},
		{
			name: "fee rate of one",
			yaml: "chain:\n  para_id: 100\n  fee:\n    rate: \"1.0\"\n    treasury: " + testAccount + "\n",
			want: "out of range",
		},
		{
			name: "fee without treasury",
			yaml: "chain:\n  para_id: 100\n  fee:\n    rate: \"0.01\"\n",
			want: "treasury",
		},
		{
			name: "unknown asset syntax",
			yaml: `
chain:
  para_id: 100
genesis:
  balances:
    - account: ` + testAccount + `
      asset: dollars
      amount: "1"
`,
			want: "asset",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestEnvOverridesProcessFields(t *testing.T) {
	t.Setenv("SUBDEX_DATA_DIR", "/var/lib/subdex")
	t.Setenv("SUBDEX_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load(writeConfig(t, `
node:
  data_dir: ./ignored
chain:
  para_id: 100
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Node.DataDir != "/var/lib/subdex" {
		t.Fatalf("data dir: got %q", cfg.Node.DataDir)
	}
	if len(cfg.Feed.Brokers) != 2 || cfg.Feed.Brokers[1] != "kafka-2:9092" {
		t.Fatalf("brokers: got %v", cfg.Feed.Brokers)
	}
}

func TestParseAsset(t *testing.T) {
	if a, err := ParseAsset("main"); err != nil || !a.IsMain() {
		t.Fatalf("main: got %v %v", a, err)
	}
	if a, err := ParseAsset("parachain/7"); err != nil || a != assets.Parachain(7) {
		t.Fatalf("parachain/7: got %v %v", a, err)
	}
	if _, err := ParseAsset("parachain/x"); err == nil {
		t.Fatal("parachain/x should not parse")
	}
}
