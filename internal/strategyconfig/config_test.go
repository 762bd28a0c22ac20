package strategyconfig

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := "../../config/strategy/nse_equity_v1.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nse_equity_v1", cfg.Meta.StrategyID)
	assert.Equal(t, []string{"daily", "weekly", "monthly"}, cfg.HorizonNames())

	weekly, ok := cfg.Horizon("weekly")
	require.True(t, ok)
	assert.Equal(t, 20, weekly.Lookahead)
	assert.InDelta(t, 0.05, weekly.ReturnThreshold, 1e-12)

	// 파일과 기본값이 동일해야 함
	assert.Equal(t, Default(), cfg)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	hash2, _ := Hash(cfg)
	assert.Equal(t, hash, hash2, "hash not deterministic")

	t.Logf("config hash: %s, yaml size: %d bytes", hash, len(yamlData))
}

func TestParse_UnknownFieldFails(t *testing.T) {
	data := []byte(`
meta:
  strategy_id: x
  versoin: typo
`)
	_, err := Parse(data)
	require.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, data, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NotEmpty(t, data)

	// 기본 YAML은 다시 파싱 가능해야 함
	reparsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, reparsed)
}

func TestNewSnapshot(t *testing.T) {
	cfg := Default()
	hash, err := Hash(cfg)
	require.NoError(t, err)

	snap, err := NewSnapshot(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, hash, snap.ConfigHash)
	assert.Equal(t, cfg.Meta.StrategyID, snap.StrategyID)

	// 저장된 YAML로 같은 설정 복원
	restored, err := Parse([]byte(snap.ConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, cfg, restored)

	raw := []byte("# source file\n")
	snap, err = NewSnapshot(cfg, raw)
	require.NoError(t, err)
	assert.Equal(t, string(raw), snap.ConfigYAML)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"default is valid", func(c *Config) {}, ""},
		{"missing strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"no horizons", func(c *Config) { c.Horizons = nil }, "horizons"},
		{"bad horizon name", func(c *Config) { c.Horizons[0].Name = "Daily" }, "horizons[0].name"},
		{"duplicate horizon", func(c *Config) { c.Horizons[1].Name = "daily" }, "horizons[1].name"},
		{"zero lookahead", func(c *Config) { c.Horizons[2].Lookahead = 0 }, "horizons[2].lookahead"},
		{"delivery floor > 100", func(c *Config) { c.Universe.MinDeliveryPct = 120 }, "universe.min_delivery_pct"},
		{"zero top n", func(c *Config) { c.Ranking.TopN = 0 }, "ranking.top_n"},
		{"subsample zero", func(c *Config) { c.Model.Subsample = 0 }, "model.subsample"},
		{"learning rate > 1", func(c *Config) { c.Model.LearningRate = 1.5 }, "model.learning_rate"},
		{"one fold", func(c *Config) { c.Validation.CVFolds = 1 }, "validation.cv_folds"},
		{"empty missing strategy", func(c *Config) { c.Data.MissingDays = "" }, ""},
		{"interpolate missing strategy", func(c *Config) { c.Data.MissingDays = "interpolate" }, ""},
		{"unknown missing strategy", func(c *Config) { c.Data.MissingDays = "bfill" }, "data.missing_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	assert.Empty(t, Warn(Default()))

	cfg := Default()
	cfg.Universe.MinDeliveryPct = 45
	cfg.Model.Subsample = 1
	cfg.Model.ColsampleByTree = 1

	codes := map[string]bool{}
	for _, w := range Warn(cfg) {
		codes[w.Code] = true
	}
	assert.True(t, codes["GUARD_DELIVERY_SHADOWED"])
	assert.True(t, codes["NO_SAMPLING"])
}
