// Package config exposes runtime-tunable settings backed by the app_settings
// key-value table, with hard fallbacks so a missing row never blocks a
// request.
package config

import (
	"context"
	"strings"
	"time"

	"github.com/hsdarestani/vaadehrep/pkg/logger"
)

// Store reads the persisted key-value settings.
type Store interface {
	GetInt64(ctx context.Context, key string) (int64, bool, error)
	GetBool(ctx context.Context, key string) (bool, bool, error)
	GetString(ctx context.Context, key string) (string, bool, error)
}

const (
	KeyInZoneDeliveryFee  = "default_delivery_fee_in_zone"
	KeyServiceFee         = "default_service_fee"
	KeyUnpaidOrderTTLMins = "unpaid_order_ttl_minutes"
	KeyOrderingOpen       = "ordering_open"
	KeyOptOutOptionNames  = "opt_out_option_names"
)

const (
	FallbackInZoneDeliveryFee int64 = 80_000
	FallbackServiceFee        int64 = 0
	FallbackUnpaidOrderTTL          = 10 * time.Minute
)

type Settings struct {
	store Store
	log   *logger.Logger
}

// NewSettings wraps a store; a nil store always yields the fallbacks.
func NewSettings(store Store, log *logger.Logger) *Settings {
	if log == nil {
		log = logger.Discard()
	}
	return &Settings{store: store, log: log}
}

func (s *Settings) int64Or(ctx context.Context, key string, fallback int64) int64 {
	if s.store == nil {
		return fallback
	}
	v, ok, err := s.store.GetInt64(ctx, key)
	if err != nil {
		s.log.Warn("settings lookup failed", "key", key, "error", err)
		return fallback
	}
	if !ok {
		return fallback
	}
	return v
}

// InZoneDeliveryFee is the platform's fixed fee for in-zone delivery.
func (s *Settings) InZoneDeliveryFee(ctx context.Context) int64 {
	return s.int64Or(ctx, KeyInZoneDeliveryFee, FallbackInZoneDeliveryFee)
}

func (s *Settings) ServiceFee(ctx context.Context) int64 {
	return s.int64Or(ctx, KeyServiceFee, FallbackServiceFee)
}

// UnpaidOrderTTL is how long an order may sit in PENDING_PAYMENT before the
// sweep cancels it.
func (s *Settings) UnpaidOrderTTL(ctx context.Context) time.Duration {
	mins := s.int64Or(ctx, KeyUnpaidOrderTTLMins, 0)
	if mins <= 0 {
		return FallbackUnpaidOrderTTL
	}
	return time.Duration(mins) * time.Minute
}

// OptOutOptionNames returns the configured opt-out sentinel option names
// (comma-separated in the store), or nil when unset so the caller's defaults
// apply.
func (s *Settings) OptOutOptionNames(ctx context.Context) []string {
	if s.store == nil {
		return nil
	}
	v, ok, err := s.store.GetString(ctx, KeyOptOutOptionNames)
	if err != nil {
		s.log.Warn("settings lookup failed", "key", KeyOptOutOptionNames, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var names []string
	for _, part := range strings.Split(v, ",") {
		if name := strings.ToLower(strings.TrimSpace(part)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// OrderingOpen is the marketplace-wide kill switch.
func (s *Settings) OrderingOpen(ctx context.Context) bool {
	if s.store == nil {
		return true
	}
	v, ok, err := s.store.GetBool(ctx, KeyOrderingOpen)
	if err != nil {
		s.log.Warn("settings lookup failed", "key", KeyOrderingOpen, "error", err)
		return true
	}
	if !ok {
		return true
	}
	return v
}
