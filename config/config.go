// Package config loads the node configuration: process knobs plus the
// chain spec. Everything under chain and genesis is consensus-relevant
// and must match on every validator of the shard; node and feed are
// per-process.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/orderbook"
	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
	"github.com/subdarkdex/subdex-parachain/runtime"
)

type Config struct {
	Node struct {
		DataDir            string `yaml:"data_dir"`
		GRPCListenAddr     string `yaml:"grpc_listen_addr"`
		MetricsListenAddr  string `yaml:"metrics_listen_addr"`
		PoolCapacity       int    `yaml:"pool_capacity"`
		BlockIntervalMS    int    `yaml:"block_interval_ms"`
		SnapshotIntervalS  int    `yaml:"snapshot_interval_sec"`
		JournalSegmentSize int64  `yaml:"journal_segment_size"`
	} `yaml:"node"`

	Chain struct {
		ParaID          uint32 `yaml:"para_id"`
		Decimals        int32  `yaml:"decimals"`
		MinimumPeriodMS uint64 `yaml:"minimum_period_ms"`
		Fee             struct {
			Rate     string `yaml:"rate"`
			Treasury string `yaml:"treasury"`
		} `yaml:"fee"`
		Limits struct {
			OutboundPerChannel int `yaml:"outbound_per_channel"`
			Upward             int `yaml:"upward"`
			InboundPerChannel  int `yaml:"inbound_per_channel"`
		} `yaml:"limits"`
	} `yaml:"chain"`

	Genesis struct {
		NextAssetID uint64 `yaml:"next_asset_id"`
		Balances    []struct {
			Account string `yaml:"account"`
			Asset   string `yaml:"asset"`
			Amount  string `yaml:"amount"`
		} `yaml:"balances"`
		Pairs []struct {
			Base  string `yaml:"base"`
			Quote string `yaml:"quote"`
		} `yaml:"pairs"`
	} `yaml:"genesis"`

	Feed struct {
		Brokers       []string `yaml:"brokers"`
		EventsTopic   string   `yaml:"events_topic"`
		OutboundTopic string   `yaml:"outbound_topic"`
	} `yaml:"feed"`
}

// Load reads and validates a config file. Environment variables
// override the per-process fields, never the chain spec.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Node.DataDir == "" {
		c.Node.DataDir = "./data"
	}
	if c.Node.GRPCListenAddr == "" {
		c.Node.GRPCListenAddr = "0.0.0.0:50051"
	}
	if c.Node.MetricsListenAddr == "" {
		c.Node.MetricsListenAddr = "0.0.0.0:9100"
	}
	if c.Node.PoolCapacity == 0 {
		c.Node.PoolCapacity = 4096
	}
	if c.Node.SnapshotIntervalS == 0 {
		c.Node.SnapshotIntervalS = 60
	}
	if c.Node.JournalSegmentSize == 0 {
		c.Node.JournalSegmentSize = 2 * 1024 * 1024
	}
	if c.Chain.Decimals == 0 {
		c.Chain.Decimals = 12
	}
	if c.Chain.MinimumPeriodMS == 0 {
		c.Chain.MinimumPeriodMS = 1500
	}
	if c.Chain.Limits.OutboundPerChannel == 0 {
		c.Chain.Limits.OutboundPerChannel = 64
	}
	if c.Chain.Limits.Upward == 0 {
		c.Chain.Limits.Upward = 64
	}
	if c.Chain.Limits.InboundPerChannel == 0 {
		c.Chain.Limits.InboundPerChannel = 128
	}
	if c.Feed.EventsTopic == "" {
		c.Feed.EventsTopic = "subdex.events"
	}
	if c.Feed.OutboundTopic == "" {
		c.Feed.OutboundTopic = "subdex.outbound"
	}
}

func (c *Config) overrideWithEnv() {
	if v := os.Getenv("SUBDEX_DATA_DIR"); v != "" {
		c.Node.DataDir = v
	}
	if v := os.Getenv("SUBDEX_GRPC_ADDR"); v != "" {
		c.Node.GRPCListenAddr = v
	}
	if v := os.Getenv("SUBDEX_METRICS_ADDR"); v != "" {
		c.Node.MetricsListenAddr = v
	}
	if v := os.Getenv("SUBDEX_BROKERS"); v != "" {
		c.Feed.Brokers = strings.Split(v, ",")
	}
}

func (c *Config) Validate() error {
	if c.Chain.ParaID == 0 {
		return fmt.Errorf("chain.para_id 0 is reserved for the relay")
	}
	if c.Chain.Decimals < 0 || c.Chain.Decimals > 18 {
		return fmt.Errorf("chain.decimals %d out of range 0..18", c.Chain.Decimals)
	}
	if _, err := c.RuntimeGenesis(); err != nil {
		return err
	}
	return nil
}

// RuntimeGenesis converts the chain spec into the executor's genesis.
func (c *Config) RuntimeGenesis() (runtime.Genesis, error) {
	fee, err := c.feeSchedule()
	if err != nil {
		return runtime.Genesis{}, err
	}

	g := runtime.Genesis{
		Params: runtime.Params{
			Para:          assets.ParaID(c.Chain.ParaID),
			MinimumPeriod: c.Chain.MinimumPeriodMS,
			Fee:           fee,
			Limits: xcmp.Limits{
				MaxOutboundPerChannel: c.Chain.Limits.OutboundPerChannel,
				MaxUpward:             c.Chain.Limits.Upward,
				MaxInboundPerChannel:  c.Chain.Limits.InboundPerChannel,
			},
		},
		NextAssetID: assets.AssetID(c.Genesis.NextAssetID),
	}

	for _, b := range c.Genesis.Balances {
		account, err := assets.ParseAccountID(b.Account)
		if err != nil {
			return runtime.Genesis{}, err
		}
		asset, err := ParseAsset(b.Asset)
		if err != nil {
			return runtime.Genesis{}, err
		}
		amount, err := c.parsePlancks(b.Amount)
		if err != nil {
			return runtime.Genesis{}, err
		}
		g.Balances = append(g.Balances, runtime.GenesisBalance{
			Account: account,
			Asset:   asset,
			Amount:  amount,
		})
	}

	for _, p := range c.Genesis.Pairs {
		base, err := ParseAsset(p.Base)
		if err != nil {
			return runtime.Genesis{}, err
		}
		quote, err := ParseAsset(p.Quote)
		if err != nil {
			return runtime.Genesis{}, err
		}
		g.Pairs = append(g.Pairs, runtime.GenesisPair{Base: base, Quote: quote})
	}

	return g, nil
}

// ParseAsset reads the config naming for assets: "main" for the native
// currency, "parachain/<id>" for a registered remote asset.
func ParseAsset(s string) (assets.Asset, error) {
	if strings.EqualFold(s, "main") {
		return assets.Main(), nil
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "parachain/"); ok {
		id, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return assets.Asset{}, fmt.Errorf("asset %q: %w", s, err)
		}
		return assets.Parachain(assets.AssetID(id)), nil
	}
	return assets.Asset{}, fmt.Errorf("asset %q: want \"main\" or \"parachain/<id>\"", s)
}

// parsePlancks converts a decimal amount in whole units into plancks
// at the chain's configured decimals. Sub-planck precision is a spec
// mistake, not something to round.
func (c *Config) parsePlancks(amount string) (assets.Balance, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", amount)
	}
	scaled := d.Shift(c.Chain.Decimals)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %q needs more than %d decimal places", amount, c.Chain.Decimals)
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows the balance type", amount)
	}
	return assets.Balance(bi.Uint64()), nil
}

// feeSchedule turns the decimal fee rate into the engine's exact
// rational. The rate must stay below one; the engine divides by Den
// on that assumption.
func (c *Config) feeSchedule() (orderbook.FeeSchedule, error) {
	if c.Chain.Fee.Rate == "" {
		return orderbook.FeeSchedule{}, nil
	}

	d, err := decimal.NewFromString(c.Chain.Fee.Rate)
	if err != nil {
		return orderbook.FeeSchedule{}, fmt.Errorf("fee rate %q: %w", c.Chain.Fee.Rate, err)
	}
	if d.IsNegative() || !d.LessThan(decimal.New(1, 0)) {
		return orderbook.FeeSchedule{}, fmt.Errorf("fee rate %q out of range [0, 1)", c.Chain.Fee.Rate)
	}
	if d.IsZero() {
		return orderbook.FeeSchedule{}, nil
	}
	if c.Chain.Fee.Treasury == "" {
		return orderbook.FeeSchedule{}, fmt.Errorf("fee.treasury is required when fee.rate is set")
	}

	exp := -d.Exponent()
	if exp < 0 || exp > 18 {
		return orderbook.FeeSchedule{}, fmt.Errorf("fee rate %q precision out of range", c.Chain.Fee.Rate)
	}
	coeff := d.Coefficient()
	if !coeff.IsUint64() {
		return orderbook.FeeSchedule{}, fmt.Errorf("fee rate %q numerator overflows", c.Chain.Fee.Rate)
	}

	den := uint64(1)
	for i := int32(0); i < exp; i++ {
		den *= 10
	}

	treasury, err := assets.ParseAccountID(c.Chain.Fee.Treasury)
	if err != nil {
		return orderbook.FeeSchedule{}, err
	}

	return orderbook.FeeSchedule{
		Num:      coeff.Uint64(),
		Den:      den,
		Treasury: treasury,
		Enabled:  true,
	}, nil
}
