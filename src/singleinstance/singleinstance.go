package singleinstance

// Loopback ownership of the hotkey daemon. The first daemon binds the
// configured port; later invocations use it to detect the resident daemon or
// ask it for a capture.

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyRunning is returned by Listen when another daemon answers on the port.
	ErrAlreadyRunning = errors.New("a capture daemon is already running")
	// ErrNoResident is returned by Trigger when nothing answers on the port.
	ErrNoResident = errors.New("no capture daemon is running")
)

// Server owns the daemon port and forwards capture requests to a callback.
type Server interface {
	// Port returns the bound TCP port.
	Port() int
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Listen claims the daemon port and calls onCapture for every CAPTURE request
// until ctx is done or Close is called.
func Listen(ctx context.Context, onCapture func()) (Server, error) {
	s, err := listenTCP(ctx, getPort(), onCapture)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Trigger asks the resident daemon to start a capture.
func Trigger(ctx context.Context) error {
	return trigger(ctx, address(getPort()))
}
