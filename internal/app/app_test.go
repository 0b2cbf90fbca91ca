package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workorder-intake-go/internal/config"
	"workorder-intake-go/internal/logger"
	"workorder-intake-go/internal/types"
)

func TestBuild_HeuristicOnly(t *testing.T) {
	log := logger.NewWithWriter(&bytes.Buffer{})

	a, err := Build(context.Background(), config.Default(), log, prometheus.NewRegistry())
	require.NoError(t, err)
	defer a.Close()

	assert.Empty(t, a.Orchestrator.Backends())

	res, err := a.Processor.Process(context.Background(), types.ExtractRequest{RawText: "fix the sink"})
	require.NoError(t, err)
	assert.Equal(t, types.SourceHeuristic, res.Source)
}

func TestBuild_ConfiguredSlots(t *testing.T) {
	log := logger.NewWithWriter(&bytes.Buffer{})
	cfg := config.Default()
	cfg.Primary = config.Backend{Provider: config.ProviderAnthropic, APIKey: "k"}
	cfg.Secondary = config.Backend{Provider: config.ProviderOpenAI, APIKey: "k"}

	a, err := Build(context.Background(), cfg, log, prometheus.NewRegistry())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []types.Source{types.SourcePrimary, types.SourceSecondary}, a.Orchestrator.Backends())
}

func TestBuild_OnlySecondary(t *testing.T) {
	log := logger.NewWithWriter(&bytes.Buffer{})
	cfg := config.Default()
	cfg.Secondary = config.Backend{Provider: config.ProviderOpenAI, APIKey: "k"}

	a, err := Build(context.Background(), cfg, log, prometheus.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, []types.Source{types.SourceSecondary}, a.Orchestrator.Backends())
}
