// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking TCP socket layer for hioload-chat. Implements api.Transport on
// raw descriptors so the relay loop can hand them to the multiplexer
// directly. Platform code is strictly separated by build tags.

package transport
