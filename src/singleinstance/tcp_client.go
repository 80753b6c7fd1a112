package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"
)

const dialTimeout = 300 * time.Millisecond

// roundTrip sends one request line and reads one response line.
func roundTrip(ctx context.Context, addr, request string) (string, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	deadline := time.Now().Add(requestTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)
	if _, err := conn.Write([]byte(request)); err != nil {
		return "", err
	}
	return bufio.NewReader(conn).ReadString('\n')
}

func ping(ctx context.Context, addr string) bool {
	resp, err := roundTrip(ctx, addr, pingRequest)
	return err == nil && resp == pongResponse
}

func trigger(ctx context.Context, addr string) error {
	if !ping(ctx, addr) {
		return fmt.Errorf("%w on %s", ErrNoResident, addr)
	}
	resp, err := roundTrip(ctx, addr, captureRequest)
	if err != nil {
		return fmt.Errorf("capture request failed: %w", err)
	}
	if resp != okResponse {
		return fmt.Errorf("capture request rejected: %q", resp)
	}
	return nil
}
