// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config resolves the loomsrc configuration from defaults, a
// strict YAML file and LOOMSRC_* environment variables, in that order.
package config
