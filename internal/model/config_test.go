package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Cache.Enabled)
	assert.Greater(t, cfg.Concurrency.Workers, 0)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no workers", func(c *Config) { c.Concurrency.Workers = 0 }},
		{"no rebuild rate", func(c *Config) { c.Watch.RebuildsPerSecond = 0 }},
		{"cache without dir", func(c *Config) { c.Cache.Dir = "" }},
		{"negative ttl", func(c *Config) { c.Cache.DiskTTL = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.Dir = ""
	assert.NoError(t, cfg.Validate())
}

func TestConfigYAML(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	assert.NoError(t, err)

	var back Config
	assert.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, DefaultConfig(), back)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]CheckReport{
		{Valid: true, Outcome: "valid"},
		{Valid: false, Outcome: "several_roots"},
		{Valid: false, Outcome: "several_roots"},
	})
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Valid)
	assert.Equal(t, 2, s.Invalid)
	assert.Equal(t, 2, s.Outcomes["several_roots"])
}
