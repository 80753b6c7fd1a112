package singleinstance

import (
	"net"
	"os"
	"strconv"
)

const (
	defaultPort = 49500
	// PortEnv overrides the loopback port the daemon owns.
	PortEnv = "DAEMON_PORT"
)

// getPort returns the configured port, clamped to [1024, 65535].
func getPort() int {
	port := defaultPort
	if v := os.Getenv(PortEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			port = n
		}
	}
	if port < 1024 {
		port = 1024
	}
	if port > 65535 {
		port = 65535
	}
	return port
}

func address(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}
