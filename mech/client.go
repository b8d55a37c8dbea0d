package mech

import (
	"context"
	"time"

	"github.com/edaniels/golog"
	"github.com/go-zeromq/zmq4"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to the mechanisms server over its request/reply network
// sockets: one for demands, one for sensor data. One request and one reply
// travel per control tick on the demand socket.
type Client struct {
	dems   zmq4.Socket
	sens   zmq4.Socket
	logger golog.Logger
}

// NewClient dials the mechanisms server's demand and sensor endpoints.
func NewClient(ctx context.Context, demsEndpoint, sensEndpoint string, logger golog.Logger) (*Client, error) {
	dems := zmq4.NewReq(ctx, zmq4.WithDialerTimeout(time.Second))
	if err := dems.Dial(demsEndpoint); err != nil {
		return nil, errors.Wrapf(err, "cannot dial mech demand endpoint %q", demsEndpoint)
	}

	sens := zmq4.NewReq(ctx, zmq4.WithDialerTimeout(time.Second))
	if err := sens.Dial(sensEndpoint); err != nil {
		dems.Close()
		return nil, errors.Wrapf(err, "cannot dial mech sensor endpoint %q", sensEndpoint)
	}

	logger.Infow("connected to mechanisms server",
		"dems_endpoint", demsEndpoint,
		"sens_endpoint", sensEndpoint,
	)
	return &Client{dems: dems, sens: sens, logger: logger}, nil
}

// SendDemands ships one demand set and waits for the server's verdict.
func (c *Client) SendDemands(d Demands) (Response, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", errors.Wrap(err, "cannot serialise demands")
	}
	if err := c.dems.Send(zmq4.NewMsg(b)); err != nil {
		return "", errors.Wrap(err, "cannot send demands")
	}

	reply, err := c.dems.Recv()
	if err != nil {
		return "", errors.Wrap(err, "no response from mechanisms server")
	}

	var resp Response
	if err := json.Unmarshal(reply.Bytes(), &resp); err != nil {
		return "", errors.Wrap(err, "cannot parse mechanisms response")
	}
	return resp, nil
}

// ReadSensData requests one achieved-state snapshot from the server.
func (c *Client) ReadSensData() (*SensData, error) {
	if err := c.sens.Send(zmq4.NewMsgString("sens")); err != nil {
		return nil, errors.Wrap(err, "cannot request sensor data")
	}
	reply, err := c.sens.Recv()
	if err != nil {
		return nil, errors.Wrap(err, "no sensor data from mechanisms server")
	}

	var sens SensData
	if err := json.Unmarshal(reply.Bytes(), &sens); err != nil {
		return nil, errors.Wrap(err, "cannot parse sensor data")
	}
	return &sens, nil
}

// Close shuts both sockets down.
func (c *Client) Close() error {
	demsErr := c.dems.Close()
	sensErr := c.sens.Close()
	if demsErr != nil {
		return demsErr
	}
	return sensErr
}
