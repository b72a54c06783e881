// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, logging, runtime metrics, and debug introspection layer for
// hioload-chat.
//
// Provides:
//   - YAML configuration with defaults, validation and env overrides
//   - Structured logger construction (logiface + stumpy)
//   - Concurrent-safe counters for the relay loop
//   - Debug probe registration and state export
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
