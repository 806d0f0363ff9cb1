package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "planner.db", cfg.DatabaseURL)
	assert.Equal(t, "00:05", cfg.RolloverTime)
	assert.Equal(t, 15*time.Minute, cfg.ReminderInterval)
	assert.Equal(t, 5, cfg.OverallLookbackYears)
	assert.Equal(t, 10000, cfg.OverallRecordCap)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PLANNER_TIMEZONE", "Europe/Moscow")
	t.Setenv("PLANNER_REMINDER_INTERVAL", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.ReminderInterval)
	assert.Equal(t, "Europe/Moscow", cfg.Location().String())
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"PLANNER_ROLLOVER_TIME":      "25:00",
		"PLANNER_TIMEZONE":           "Mars/Olympus",
		"PLANNER_REMINDER_INTERVAL":  "0s",
		"PLANNER_OVERALL_RECORD_CAP": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
