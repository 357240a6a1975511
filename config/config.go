// Package config decodes the demo binary's construction parameters from a
// TOML file, via github.com/BurntSushi/toml — a direct dependency of
// ethereum/go-ethereum, used there the same way: a small struct decoded
// from a config.toml describing how to construct a long-running
// subsystem.
package config

import "github.com/BurntSushi/toml"

// WheelConfig holds everything needed to construct and run a wheel.
type WheelConfig struct {
	TickMS          int64  `toml:"tick_ms"`
	SlotCount       int64  `toml:"slot_count"`
	ExecutorWorkers int    `toml:"executor_workers"`
	ExecutorBuffer  int    `toml:"executor_buffer"`
	MetricsAddr     string `toml:"metrics_addr"`
}

// Default mirrors the tick/slot values the teacher's kafka_test.go hard-
// codes (tick=1000ms, wheelSize=10), as a sane starting point.
func Default() WheelConfig {
	return WheelConfig{
		TickMS:          1000,
		SlotCount:       10,
		ExecutorWorkers: 4,
		ExecutorBuffer:  256,
		MetricsAddr:     ":9090",
	}
}

// Load decodes a WheelConfig from the TOML file at path. Any field the
// file does not set keeps Default()'s value; a field set explicitly to
// zero stays zero.
func Load(path string) (WheelConfig, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return WheelConfig{}, err
	}
	return cfg, nil
}
