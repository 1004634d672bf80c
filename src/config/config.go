package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"sim-exchange/src/engine"
)

// Config is the YAML file layout. Decimal-valued fields are strings in the
// file so precision survives parsing.
type Config struct {
	Venue            string            `yaml:"venue"`
	OmsType          string            `yaml:"oms_type"`
	AccountType      string            `yaml:"account_type"`
	BaseCurrency     string            `yaml:"base_currency"`
	StartingBalances []BalanceConfig   `yaml:"starting_balances"`
	DefaultLeverage  string            `yaml:"default_leverage"`
	Leverages        map[string]string `yaml:"leverages"`
	FrozenAccount    bool              `yaml:"frozen_account"`
	BookType         string            `yaml:"book_type"`
	BarExecution     bool              `yaml:"bar_execution"`
	RejectStopOrders bool              `yaml:"reject_stop_orders"`
	FillModel        FillModelConfig   `yaml:"fill_model"`
	Instruments      []InstrumentCfg   `yaml:"instruments"`
	Server           ServerConfig      `yaml:"server"`
}

type BalanceConfig struct {
	Currency string `yaml:"currency"`
	Amount   string `yaml:"amount"`
}

type FillModelConfig struct {
	ProbFillOnLimit float64 `yaml:"prob_fill_on_limit"`
	ProbFillOnStop  float64 `yaml:"prob_fill_on_stop"`
	ProbSlippage    float64 `yaml:"prob_slippage"`
	Seed            int64   `yaml:"seed"`
}

type InstrumentCfg struct {
	ID             string `yaml:"id"`
	QuoteCurrency  string `yaml:"quote_currency"`
	PricePrecision int32  `yaml:"price_precision"`
	PriceIncrement string `yaml:"price_increment"`
	TickSize       string `yaml:"tick_size"`
	MakerFeeRate   string `yaml:"maker_fee_rate"`
	TakerFeeRate   string `yaml:"taker_fee_rate"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Load reads and parses the config file, applying env overrides afterwards.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyEnv()
	return &cfg, nil
}

// Default returns a runnable single-instrument configuration, used when no
// config file is present.
func Default() *Config {
	return &Config{
		Venue:       "SIM",
		OmsType:     "NETTING",
		AccountType: "MARGIN",
		StartingBalances: []BalanceConfig{
			{Currency: "USDT", Amount: "1000000"},
		},
		DefaultLeverage: "10",
		BookType:        "L1_TBBO",
		FillModel: FillModelConfig{
			ProbFillOnLimit: 1,
			ProbFillOnStop:  1,
			ProbSlippage:    0,
			Seed:            1,
		},
		Instruments: []InstrumentCfg{
			{
				ID:             "BTCUSDT",
				QuoteCurrency:  "USDT",
				PricePrecision: 2,
				PriceIncrement: "0.01",
				TickSize:       "0.01",
				MakerFeeRate:   "0.0002",
				TakerFeeRate:   "0.0005",
			},
		},
		Server: ServerConfig{ListenAddr: ":8080"},
	}
}

func (c *Config) applyEnv() {
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		c.Server.ListenAddr = addr
	}
}

// EngineConfig converts the file layout into the exchange's construction
// config, parsing all decimal strings.
func (c *Config) EngineConfig() (engine.Config, error) {
	fm, err := engine.NewFillModel(c.FillModel.ProbFillOnLimit, c.FillModel.ProbFillOnStop, c.FillModel.ProbSlippage, c.FillModel.Seed)
	if err != nil {
		return engine.Config{}, err
	}

	balances := make([]engine.Money, 0, len(c.StartingBalances))
	for _, b := range c.StartingBalances {
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			return engine.Config{}, fmt.Errorf("config: starting balance %s: %w", b.Currency, err)
		}
		balances = append(balances, engine.NewMoney(amount, b.Currency))
	}

	defaultLeverage := decimal.NewFromInt(1)
	if c.DefaultLeverage != "" {
		defaultLeverage, err = decimal.NewFromString(c.DefaultLeverage)
		if err != nil {
			return engine.Config{}, fmt.Errorf("config: default leverage: %w", err)
		}
	}

	leverages := make(map[string]decimal.Decimal, len(c.Leverages))
	for instrumentID, raw := range c.Leverages {
		lev, err := decimal.NewFromString(raw)
		if err != nil {
			return engine.Config{}, fmt.Errorf("config: leverage for %s: %w", instrumentID, err)
		}
		leverages[instrumentID] = lev
	}

	instruments := make([]engine.Instrument, 0, len(c.Instruments))
	for _, ic := range c.Instruments {
		instr, err := ic.toInstrument()
		if err != nil {
			return engine.Config{}, err
		}
		instruments = append(instruments, instr)
	}

	return engine.Config{
		Venue:            c.Venue,
		OmsType:          engine.OmsType(c.OmsType),
		AccountType:      engine.AccountType(c.AccountType),
		BaseCurrency:     c.BaseCurrency,
		StartingBalances: balances,
		DefaultLeverage:  defaultLeverage,
		Leverages:        leverages,
		FrozenAccount:    c.FrozenAccount,
		Instruments:      instruments,
		FillModel:        fm,
		BookType:         engine.BookType(c.BookType),
		BarExecution:     c.BarExecution,
		RejectStopOrders: c.RejectStopOrders,
	}, nil
}

func (ic InstrumentCfg) toInstrument() (engine.Instrument, error) {
	parse := func(field, raw, fallback string) (decimal.Decimal, error) {
		if raw == "" {
			raw = fallback
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("config: instrument %s %s: %w", ic.ID, field, err)
		}
		return value, nil
	}

	increment, err := parse("price_increment", ic.PriceIncrement, "0.01")
	if err != nil {
		return engine.Instrument{}, err
	}
	tickSize, err := parse("tick_size", ic.TickSize, increment.String())
	if err != nil {
		return engine.Instrument{}, err
	}
	makerFee, err := parse("maker_fee_rate", ic.MakerFeeRate, "0")
	if err != nil {
		return engine.Instrument{}, err
	}
	takerFee, err := parse("taker_fee_rate", ic.TakerFeeRate, "0")
	if err != nil {
		return engine.Instrument{}, err
	}

	return engine.Instrument{
		ID:             ic.ID,
		QuoteCurrency:  ic.QuoteCurrency,
		PricePrecision: ic.PricePrecision,
		PriceIncrement: increment,
		TickSize:       tickSize,
		MakerFeeRate:   makerFee,
		TakerFeeRate:   takerFee,
	}, nil
}
