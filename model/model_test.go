package model_test

import (
	"testing"
	"time"

	"github.com/attpc/daqdash/model"
	"github.com/stretchr/testify/assert"
)

func TestSummarizeSystem(t *testing.T) {
	online := model.RouterStatus{Online: true, StagingClean: true}
	dirty := model.RouterStatus{Online: true, StagingClean: false}

	testCases := []struct {
		name     string
		servers  []model.ECCServer
		routers  []model.DataRouter
		expected model.SystemState
	}{
		{"nothing registered", nil, nil, model.StateNotConfigured},
		{
			"everything online and clean",
			[]model.ECCServer{{Name: "ecc0", Online: true}},
			[]model.DataRouter{{Name: "dr0", RouterStatus: online}},
			model.StateReady,
		},
		{
			"one router down",
			[]model.ECCServer{{Name: "ecc0", Online: true}},
			[]model.DataRouter{{Name: "dr0", RouterStatus: online}, {Name: "dr1"}},
			model.StateDegraded,
		},
		{
			"staging directory has files",
			[]model.ECCServer{{Name: "ecc0", Online: true}},
			[]model.DataRouter{{Name: "dr0", RouterStatus: dirty}},
			model.StateStagingDirty,
		},
		{
			"all down",
			[]model.ECCServer{{Name: "ecc0"}},
			[]model.DataRouter{{Name: "dr0"}},
			model.StateOffline,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status := model.SummarizeSystem(tc.servers, tc.routers)

			assert.Equal(t, tc.expected, status.State)
			assert.Equal(t, len(tc.servers), status.ECCTotal)
			assert.Equal(t, len(tc.routers), status.RoutersTotal)
		})
	}
}

func TestRunElapsed(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("active run counts up to now", func(t *testing.T) {
		run := model.Run{Number: 1, StartedAt: start}

		assert.True(t, run.Active())
		assert.Equal(t, 90*time.Second, run.Elapsed(start.Add(90*time.Second)))
	})

	t.Run("stopped run has a fixed duration", func(t *testing.T) {
		stop := start.Add(time.Hour)
		run := model.Run{Number: 1, StartedAt: start, StoppedAt: &stop}

		assert.False(t, run.Active())
		assert.Equal(t, time.Hour, run.Elapsed(start.Add(5*time.Hour)))
	})
}

func TestParseRouterType(t *testing.T) {
	rt, ok := model.ParseRouterType("ZBUF")
	assert.True(t, ok)
	assert.Equal(t, model.RouterZBUF, rt)

	_, ok = model.ParseRouterType("udp")
	assert.False(t, ok)
}
