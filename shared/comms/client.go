package comms

import (
	"context"

	"github.com/golang/protobuf/ptypes/empty"
	"github.com/mwindels/remote-raytracer/shared/colour"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a connection to one worker.
// Clients are safe for concurrent use.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for the worker at address.
// The connection is made lazily; extra options are applied after the insecure transport credentials.
func Dial(address string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Ping asks the worker whether it is ready for work.
func (c *Client) Ping(ctx context.Context) (Status, error) {
	reply := new(wrapperspb.Int32Value)
	if err := c.conn.Invoke(ctx, pingMethod, &empty.Empty{}, reply); err != nil {
		return StatusUnknown, FromStatus(err)
	}
	return Status(reply.GetValue()), nil
}

// GetPixel asks the worker for the colour of one pixel.
// Returned errors are always *state.Error values.
func (c *Client) GetPixel(ctx context.Context, req *PixelRequest) (colour.RGB, error) {
	reply := new(PixelReply)
	if err := c.conn.Invoke(ctx, getPixelMethod, req, reply, grpc.CallContentSubtype(CodecName)); err != nil {
		return colour.RGB{}, FromStatus(err)
	}
	return reply.Colour, nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
