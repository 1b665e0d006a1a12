// Package transport carries one framed command to the service and brings back
// one framed response, over a fresh TCP connection per call.
package transport

import (
	"context"
	"io"
	"net"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sigreer/rascsictl/internal/frame"
)

// Dialer opens connections; *net.Dialer satisfies it
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Transport sends commands to one endpoint. It holds no connection between
// calls and is safe for concurrent use.
type Transport struct {
	cfg    Config
	dialer Dialer
}

type Option func(*Transport)

// WithDialer replaces the default net.Dialer
func WithDialer(d Dialer) Option {
	return func(t *Transport) { t.dialer = d }
}

func New(cfg Config, opts ...Option) *Transport {
	t := &Transport{
		cfg:    cfg.normalized(),
		dialer: &net.Dialer{},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Config returns the effective configuration
func (t *Transport) Config() Config {
	return t.cfg
}

// Send delivers payload as one frame and returns the payload of the response frame.
// ctx bounds the connect phase only; reads on an established connection use
// the operating system defaults.
func (t *Transport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	conn, attempts, err := t.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	resp, err := t.exchange(conn, payload)
	if err != nil {
		var te *Error
		if errors.As(err, &te) {
			te.Attempts = attempts
		}
		zerolog.Ctx(ctx).Error().Err(err).
			Str("endpoint", t.cfg.Address()).
			Int("attempt", attempts).
			Msg("exchange with emulation service failed")
		return nil, err
	}
	return resp, nil
}

func (t *Transport) connect(ctx context.Context) (net.Conn, int, error) {
	l := zerolog.Ctx(ctx)
	addr := t.cfg.Address()

	var (
		conn    net.Conn
		attempt int
	)
	dial := func() error {
		attempt++
		c, err := t.dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			l.Warn().Err(err).
				Str("endpoint", addr).
				Int("attempt", attempt).
				Int("max_attempts", t.cfg.MaxAttempts).
				Msg("emulation service is not responding")
			return err
		}
		conn = c
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(t.cfg.RetryInterval), uint64(t.cfg.MaxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(dial, b); err != nil {
		l.Error().Err(err).
			Str("endpoint", addr).
			Int("attempts", attempt).
			Msg("giving up on emulation service")
		return nil, attempt, &Error{Kind: ServiceUnavailable, Endpoint: addr, Attempts: attempt, Err: err}
	}
	return conn, attempt, nil
}

func (t *Transport) exchange(conn io.ReadWriter, payload []byte) ([]byte, error) {
	addr := t.cfg.Address()

	if err := frame.Write(conn, payload); err != nil {
		return nil, &Error{Kind: ConnectionLost, Endpoint: addr, Err: errors.Wrap(err, "write command")}
	}

	var hdr [frame.HeaderSize]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return nil, &Error{Kind: ProtocolError, Endpoint: addr, Err: errors.Wrap(err, "no protobuf header in response")}
	}
	n, err := frame.DecodeHeader(hdr[:])
	if err != nil {
		return nil, &Error{Kind: ProtocolError, Endpoint: addr, Err: err}
	}

	body, err := readBody(conn, n, t.cfg.ChunkSize)
	if err != nil {
		return nil, &Error{Kind: ConnectionLost, Endpoint: addr, Err: err}
	}
	return body, nil
}

// readBody reads exactly n bytes in reads of at most chunkSize. An empty read
// before n bytes arrived means the peer dropped the connection.
func readBody(r io.Reader, n, chunkSize int) ([]byte, error) {
	buf := make([]byte, n)
	off := 0
	for off < n {
		m, err := r.Read(buf[off:min(n, off+chunkSize)])
		off += m
		if off == n {
			break
		}
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, errors.Wrapf(err, "read %d of %d response bytes", off, n)
		}
		if m == 0 {
			return nil, errors.Wrapf(io.ErrNoProgress, "read %d of %d response bytes", off, n)
		}
	}
	return buf, nil
}
