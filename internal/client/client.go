// Package client is the control surface for a RaSCSI emulation service.
//
// Every method that talks to the service opens one connection, sends one
// command and decodes one result. A result with Status false is the service
// declining the operation and is returned as a value; errors are reserved for
// invalid arguments and for transport failures.
package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sigreer/rascsictl/internal/command"
	"github.com/sigreer/rascsictl/internal/db"
	"github.com/sigreer/rascsictl/internal/inventory"
	"github.com/sigreer/rascsictl/internal/pb"
	"github.com/sigreer/rascsictl/internal/result"
	"github.com/sigreer/rascsictl/internal/transport"
)

// Journal records the outcome of each command sent; *db.DB satisfies it
type Journal interface {
	RecordCommand(ctx context.Context, e *db.Entry) error
}

// Client issues commands to one service endpoint
type Client struct {
	transport *transport.Transport
	journal   Journal
}

type Option func(*Client)

// WithJournal records every command sent through the client
func WithJournal(j Journal) Option {
	return func(c *Client) { c.journal = j }
}

func New(t *transport.Transport, opts ...Option) *Client {
	c := &Client{transport: t}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Endpoint returns host:port of the service
func (c *Client) Endpoint() string {
	return c.transport.Config().Address()
}

// ServerInfo asks the service for its version
func (c *Client) ServerInfo(ctx context.Context) (*result.Result, error) {
	return c.execute(ctx, command.ServerInfo())
}

// Version returns the dotted service version, e.g. "21.10.1", or "" when
// the service declines to report one
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.ServerInfo(ctx)
	if err != nil {
		return "", err
	}
	return res.Version(), nil
}

// ValidateID checks that id is a usable SCSI ID
func (c *Client) ValidateID(id int) error {
	return command.ValidateID(id)
}

// ComputeValidIDs returns the IDs a new device may take, highest first
func (c *Client) ComputeValidIDs(devices []result.DeviceRecord, excluded, occupied []int) []int {
	return inventory.ValidIDs(devices, excluded, occupied)
}

// DeviceType returns the type tag of the device at id, or "" when the ID is free
func (c *Client) DeviceType(ctx context.Context, id int) (string, error) {
	cmd, err := command.DeviceInfo(&id)
	if err != nil {
		return "", err
	}
	res, err := c.execute(ctx, cmd)
	if err != nil {
		return "", err
	}
	return res.DeviceList().TypeOf(), nil
}

// Attach attaches a device. When both the requested type and the type
// already at p.ID take removable media, the image is inserted into the
// existing drive instead.
func (c *Client) Attach(ctx context.Context, p command.AttachParams) (*result.Result, error) {
	if err := command.ValidateAttach(p); err != nil {
		return nil, err
	}

	current := pb.Undefined
	if command.IsRemovable(p.Type) {
		tag, err := c.DeviceType(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if tag != "" {
			if t, err := pb.ParseDeviceType(tag); err == nil {
				current = t
			}
		}
	}

	cmd, err := command.AttachOrInsert(p, current)
	if err != nil {
		return nil, err
	}
	if cmd.Operation == pb.Insert {
		zerolog.Ctx(ctx).Debug().
			Int("scsi_id", p.ID).
			Str("current_type", current.String()).
			Msg("removable drive already attached, inserting instead")
	}
	return c.execute(ctx, cmd)
}

// AttachNetworkAdapter attaches a DaynaPort adapter at id
func (c *Client) AttachNetworkAdapter(ctx context.Context, id int) (*result.Result, error) {
	cmd, err := command.AttachNetworkAdapter(id)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, cmd)
}

// Detach removes the device at id
func (c *Client) Detach(ctx context.Context, id int) (*result.Result, error) {
	cmd, err := command.Detach(id)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, cmd)
}

// DetachAll removes every device
func (c *Client) DetachAll(ctx context.Context) (*result.Result, error) {
	return c.execute(ctx, command.DetachAll())
}

// Eject unloads the medium of the device at id
func (c *Client) Eject(ctx context.Context, id int) (*result.Result, error) {
	cmd, err := command.Eject(id)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, cmd)
}

// Insert loads image into the removable device at id
func (c *Client) Insert(ctx context.Context, id int, image string) (*result.Result, error) {
	cmd, err := command.Insert(id, image)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, cmd)
}

// ReserveIDs sets the reserved ID list, e.g. "1,4"; "" releases all
func (c *Client) ReserveIDs(ctx context.Context, ids string) (*result.Result, error) {
	return c.execute(ctx, command.Reserve(ids))
}

// ListDevices returns the attached devices, or only those at *id, with
// their IDs in service order. A rejected query yields empty lists.
func (c *Client) ListDevices(ctx context.Context, id *int) ([]result.DeviceRecord, []int, error) {
	cmd, err := command.DeviceInfo(id)
	if err != nil {
		return nil, nil, err
	}
	res, err := c.execute(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	list := res.DeviceList()
	return list.Devices, list.OccupiedIDs(), nil
}

// SortAndPad orders devices by ID and fills every free ID with a placeholder row
func (c *Client) SortAndPad(devices []result.DeviceRecord, occupied []int) []inventory.DeviceView {
	return inventory.SortAndPad(devices, occupied)
}

func (c *Client) execute(ctx context.Context, cmd *pb.Command) (*result.Result, error) {
	requestID := uuid.NewString()
	l := zerolog.Ctx(ctx).With().
		Str("request_id", requestID).
		Str("operation", cmd.Operation.String()).
		Logger()
	ctx = l.WithContext(ctx)

	start := time.Now()
	res, err := c.roundTrip(ctx, cmd)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		// already logged by the transport
	case res.Status:
		l.Debug().Dur("duration", elapsed).Msg("command accepted")
	default:
		l.Info().Str("reason", res.Message).Dur("duration", elapsed).Msg("command rejected")
	}

	c.record(ctx, requestID, cmd, res, err, elapsed)
	return res, err
}

func (c *Client) roundTrip(ctx context.Context, cmd *pb.Command) (*result.Result, error) {
	payload, err := c.transport.Send(ctx, cmd.Marshal())
	if err != nil {
		return nil, err
	}
	res, err := result.Decode(cmd.Operation, payload)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("response is not a valid result")
		return nil, &transport.Error{Kind: transport.ProtocolError, Endpoint: c.Endpoint(), Err: err}
	}
	return res, nil
}

func (c *Client) record(ctx context.Context, requestID string, cmd *pb.Command, res *result.Result, err error, elapsed time.Duration) {
	if c.journal == nil {
		return
	}

	e := &db.Entry{
		RequestID: requestID,
		Operation: cmd.Operation.String(),
		Params:    append([]string(nil), cmd.Params...),
		Endpoint:  c.Endpoint(),
		Duration:  elapsed,
	}
	if len(cmd.Devices) > 0 {
		id := int(cmd.Devices[0].ID)
		e.SCSIID = &id
		e.Params = append(e.Params, cmd.Devices[0].Params...)
	}
	if len(e.Params) == 0 {
		e.Params = nil
	}

	switch {
	case err != nil:
		e.Outcome = db.OutcomeFailed
		e.Message = err.Error()
		var te *transport.Error
		if errors.As(err, &te) {
			e.ErrorKind = te.Kind.String()
			e.Attempts = te.Attempts
		}
	case res.Status:
		e.Outcome = db.OutcomeOK
		e.Message = res.Message
	default:
		e.Outcome = db.OutcomeRejected
		e.Message = res.Message
	}

	if jerr := c.journal.RecordCommand(ctx, e); jerr != nil {
		zerolog.Ctx(ctx).Warn().Err(jerr).Msg("failed to journal command")
	}
}
