package breeding

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/herdbook/herdbook/internal/store"
)

// Per-farm breeding configuration keys.
const (
	KeyGestationDays        = "gestation_days"
	KeyPostpartumRestDays   = "postpartum_rest_days"
	KeyDryOffLeadDays       = "dry_off_days_before_calving"
	KeyHeiferMaturityMonths = "heifer_maturity_months"
	KeyEstrusCycleDays      = "estrus_cycle_days"
)

// Defaults applied when a farm has not configured a key.
const (
	DefaultGestationDays        = 283
	DefaultPostpartumRestDays   = 60
	DefaultDryOffLeadDays       = 60
	DefaultHeiferMaturityMonths = 15
	DefaultEstrusCycleDays      = 21
)

// Settings bundles the resolved breeding parameters of one farm.
// EstrusCycleDays is part of the configuration surface but currently unused
// by the inference rules.
type Settings struct {
	GestationDays        int
	PostpartumRestDays   int
	DryOffLeadDays       int
	HeiferMaturityMonths int
	EstrusCycleDays      int
}

// DefaultSettings returns the hardcoded fallbacks.
func DefaultSettings() Settings {
	return Settings{
		GestationDays:        DefaultGestationDays,
		PostpartumRestDays:   DefaultPostpartumRestDays,
		DryOffLeadDays:       DefaultDryOffLeadDays,
		HeiferMaturityMonths: DefaultHeiferMaturityMonths,
		EstrusCycleDays:      DefaultEstrusCycleDays,
	}
}

// ConfigValue looks up one raw configuration value for a farm. The second
// return is false when the key is not configured. A lookup failure is
// treated identically to "not configured": the caller falls back to its
// default and the anomaly is logged.
func (s *Service) ConfigValue(ctx context.Context, farmID, key string) (string, bool) {
	rows, err := s.store.Select(ctx, store.TableBreedingConfig, store.Query{
		Filters: []store.Filter{
			store.Eq("farm_id", farmID),
			store.Eq("key", key),
		},
		Limit: 1,
	})
	if err != nil {
		s.logger.Warn("breeding config lookup failed, using default",
			zap.String("farm_id", farmID),
			zap.String("key", key),
			zap.Error(err))
		return "", false
	}
	if len(rows) == 0 {
		return "", false
	}

	raw, ok := rows[0]["value"]
	if !ok || raw == nil {
		return "", false
	}
	if str, ok := raw.(string); ok {
		return str, true
	}
	return "", false
}

// Settings resolves every breeding parameter of a farm, key by key, falling
// back to the defaults for anything unset or malformed.
func (s *Service) Settings(ctx context.Context, farmID string) Settings {
	return Settings{
		GestationDays:        s.intSetting(ctx, farmID, KeyGestationDays, DefaultGestationDays),
		PostpartumRestDays:   s.intSetting(ctx, farmID, KeyPostpartumRestDays, DefaultPostpartumRestDays),
		DryOffLeadDays:       s.intSetting(ctx, farmID, KeyDryOffLeadDays, DefaultDryOffLeadDays),
		HeiferMaturityMonths: s.intSetting(ctx, farmID, KeyHeiferMaturityMonths, DefaultHeiferMaturityMonths),
		EstrusCycleDays:      s.intSetting(ctx, farmID, KeyEstrusCycleDays, DefaultEstrusCycleDays),
	}
}

func (s *Service) intSetting(ctx context.Context, farmID, key string, fallback int) int {
	raw, ok := s.ConfigValue(ctx, farmID, key)
	if !ok {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.Warn("breeding config value is not an integer, using default",
			zap.String("farm_id", farmID),
			zap.String("key", key),
			zap.String("value", raw))
		return fallback
	}
	return value
}
