package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("LEDGER_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("LEDGER_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 150, cfg.CycleTarget)
	require.Equal(t, 5, cfg.AutomaticDefaultCredit)
	require.Equal(t, 10*time.Minute, cfg.BridgeDedupeTTL)
	require.Equal(t, "lms.course.completed", cfg.CourseCompletedSubject)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.False(t, cfg.EvidenceUploadsEnabled())
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("LEDGER_JWT_SECRET", "secret")
	t.Setenv("LEDGER_APP_PORT", ":9090")
	t.Setenv("LEDGER_CREDITS_CYCLE_TARGET", "120")
	t.Setenv("LEDGER_BRIDGE_DEDUPE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 120, cfg.CycleTarget)
	require.Equal(t, 30*time.Second, cfg.BridgeDedupeTTL)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("LEDGER_JWT_SECRET", "secret")
	t.Setenv("LEDGER_RATELIMIT_WINDOW", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadMaintenanceSkipsSecret(t *testing.T) {
	t.Setenv("LEDGER_JWT_SECRET", "")
	t.Setenv("LEDGER_EVIDENCE_MAX_SIZE_MB", "4")

	cfg, err := LoadMaintenance()
	require.NoError(t, err)
	require.Empty(t, cfg.JWTSecret)
	require.Equal(t, 4, cfg.EvidenceMaxSizeMB)
}
