package config

import "time"

// Default configuration values.
const (
	DefaultInterface          = "eth0"
	DefaultLogLevel           = "info"
	DefaultLeaseTime          = 12 * time.Hour
	DefaultRateLimitDiscovers = 100
	DefaultRateLimitPerMAC    = 5
	DefaultRadiusTimeout      = 5 * time.Second
)
