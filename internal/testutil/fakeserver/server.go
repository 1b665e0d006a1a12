// Package fakeserver runs an in-process emulation service for tests.
package fakeserver

import (
	"io"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/sigreer/rascsictl/internal/frame"
	"github.com/sigreer/rascsictl/internal/pb"
	"github.com/sigreer/rascsictl/internal/transport"
)

// Handler answers one decoded command
type Handler func(cmd *pb.Command) *pb.Result

// Server accepts framed commands on a loopback port
type Server struct {
	ln      net.Listener
	handler Handler
	raw     []byte

	mu       sync.Mutex
	commands []*pb.Command

	wg sync.WaitGroup
}

// Start listens on 127.0.0.1 and serves until the test ends
func Start(t testing.TB, h Handler) *Server {
	t.Helper()
	return start(t, h, nil)
}

// StartRaw serves a fixed response payload to every command
func StartRaw(t testing.TB, payload []byte) *Server {
	t.Helper()
	return start(t, nil, payload)
}

func start(t testing.TB, h Handler, raw []byte) *Server {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("fakeserver: listen: %v", err)
	}
	s := &Server{ln: ln, handler: h, raw: raw}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// Close stops accepting and waits for open connections to finish
func (s *Server) Close() {
	s.ln.Close()
	s.wg.Wait()
}

// Config returns a transport config aimed at the server with a small retry budget
func (s *Server) Config() transport.Config {
	addr := s.ln.Addr().(*net.TCPAddr)
	cfg := transport.DefaultConfig()
	cfg.Host = addr.IP.String()
	cfg.Port = addr.Port
	cfg.MaxAttempts = 3
	cfg.RetryInterval = 0
	return cfg
}

// Addr returns host:port
func (s *Server) Addr() string {
	addr := s.ln.Addr().(*net.TCPAddr)
	return net.JoinHostPort(addr.IP.String(), strconv.Itoa(addr.Port))
}

// Commands returns every command received so far
func (s *Server) Commands() []*pb.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*pb.Command(nil), s.commands...)
}

// Operations returns the operation of every command received so far
func (s *Server) Operations() []pb.Operation {
	var ops []pb.Operation
	for _, c := range s.Commands() {
		ops = append(ops, c.Operation)
	}
	return ops
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	var hdr [frame.HeaderSize]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return
	}
	n, err := frame.DecodeHeader(hdr[:])
	if err != nil {
		return
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return
	}

	if s.raw != nil {
		frame.Write(conn, s.raw)
		return
	}

	var cmd pb.Command
	res := &pb.Result{Msg: "malformed command"}
	if err := cmd.Unmarshal(payload); err == nil {
		s.mu.Lock()
		s.commands = append(s.commands, &cmd)
		s.mu.Unlock()
		res = s.handler(&cmd)
	}
	frame.Write(conn, res.Marshal())
}
