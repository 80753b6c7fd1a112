package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

const (
	residentHost    = "127.0.0.1"
	pingRequest     = "PING\n"
	pongResponse    = "PONG\n"
	captureRequest  = "CAPTURE\n"
	okResponse      = "OK\n"
	unknownResponse = "ERROR\n"
	requestTimeout  = 3 * time.Second
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	lis       net.Listener
	port      int
	onCapture func()
	closeOnce sync.Once
}

func listenTCP(ctx context.Context, port int, onCapture func()) (*tcpServer, error) {
	addr := address(port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		if ping(ctx, addr) {
			return nil, fmt.Errorf("%w on %s", ErrAlreadyRunning, addr)
		}
		log.Printf("Daemon: failed to bind %s: %v", addr, err)
		return nil, err
	}
	s := &tcpServer{lis: lis, port: port, onCapture: onCapture}
	log.Printf("Daemon: listening on %s", addr)
	go s.acceptLoop()
	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	return s, nil
}

func (s *tcpServer) Port() int { return s.port }

func (s *tcpServer) acceptLoop() {
	for {
		c, err := s.lis.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Printf("Daemon: accept failed: %v", err)
			}
			return
		}
		go s.serve(c)
	}
}

// serve answers exactly one request line per connection.
func (s *tcpServer) serve(c net.Conn) {
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(requestTimeout))
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return
	}
	var resp string
	switch line {
	case pingRequest:
		resp = pongResponse
	case captureRequest:
		log.Printf("Daemon: capture requested by %s", c.RemoteAddr())
		if s.onCapture != nil {
			s.onCapture()
		}
		resp = okResponse
	default:
		resp = unknownResponse
	}
	_, _ = c.Write([]byte(resp))
}

func (s *tcpServer) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.lis.Close() })
	return err
}
