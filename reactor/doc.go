// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness multiplexer behind the relay loop:
// a level-triggered epoll implementation of api.Multiplexer with an eventfd
// used to wake a blocked wait.
package reactor
