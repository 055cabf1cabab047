package engine

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/internal/version"
	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

// DefaultFeeRate is the venue fee applied to a trade's total value.
const DefaultFeeRate = 0.001

// AssetConfig holds the per-asset trading constraints.
type AssetConfig struct {
	MaxOrderSizeMWh float64        `yaml:"max_order_size_mwh" json:"max_order_size_mwh" validate:"required,gt=0"`
	EnabledMarkets  []types.Market `yaml:"enabled_markets" json:"enabled_markets" validate:"required,min=1,dive,oneof=DAY_AHEAD INTRADAY REAL_TIME BALANCING CAPACITY"`
}

// MarketEnabled reports whether the market is enabled for this asset.
func (c AssetConfig) MarketEnabled(market types.Market) bool {
	for _, m := range c.EnabledMarkets {
		if m == market {
			return true
		}
	}

	return false
}

// Config is the trading engine configuration. SchemaVersion, when present in
// a file, must be loadable by this build.
type Config struct {
	SchemaVersion string                 `yaml:"schema_version" json:"schema_version"`
	FeeRate       float64                `yaml:"fee_rate" json:"fee_rate" validate:"gte=0,lt=1"`
	Assets        map[string]AssetConfig `yaml:"assets" json:"assets" validate:"dive"`
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid trading config", err)
	}

	return nil
}

// EmptyConfig returns a Config with default values and no assets.
func EmptyConfig() Config {
	return Config{
		FeeRate: DefaultFeeRate,
		Assets:  make(map[string]AssetConfig),
	}
}

// TestConfig returns a Config with one asset enabled on every market.
// Intended for tests and the CLI simulator.
func TestConfig(assetID string) Config {
	return Config{
		FeeRate: DefaultFeeRate,
		Assets: map[string]AssetConfig{
			assetID: {
				MaxOrderSizeMWh: 100,
				EnabledMarkets:  types.AllMarkets,
			},
		},
	}
}

// LoadConfig reads and validates a Config from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
	}

	config := EmptyConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
	}

	if config.SchemaVersion != "" {
		if err := version.CheckSchemaCompatibility(version.GetVersion(), config.SchemaVersion); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "unsupported config schema", err)
		}
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}
