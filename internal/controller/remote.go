package controller

// #region imports
import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/danielpatrickdp/careerpilot/internal/grpcjson"
)

// #endregion

// #region wire-types

type captureRequest struct{}

type captureResponse struct {
	ImagePNG []byte `json:"image_png"`
}

type clickRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Clicks int     `json:"clicks"`
}

type scrollRequest struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Dy int     `json:"dy"`
}

type ackResponse struct {
	Ok bool `json:"ok"`
}

// #endregion wire-types

// #region remote-bridge

const (
	captureMethod = "/vision.Controller/Capture"
	clickMethod   = "/vision.Controller/Click"
	scrollMethod  = "/vision.Controller/Scroll"
)

// RemoteBridge drives a device through the bridge service over gRPC: the
// service owns the real capture hook and input synthesis, this side only
// sequences them. Clicks are acknowledged before the call returns, so a
// capture issued afterwards observes post-click state.
type RemoteBridge struct {
	conn     *grpc.ClientConn
	deadline time.Duration
}

// NewRemoteBridge connects to the bridge service.
func NewRemoteBridge(addr string) (*RemoteBridge, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &RemoteBridge{conn: conn, deadline: 5 * time.Second}, nil
}

// Close shuts the connection down.
func (b *RemoteBridge) Close() error { return b.conn.Close() }

// Kind reports the remote-bridge backend.
func (b *RemoteBridge) Kind() Kind { return KindRemoteBridge }

// Capture grabs the current frame from the bridge.
func (b *RemoteBridge) Capture() (image.Image, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.deadline)
	defer cancel()

	var resp captureResponse
	err := b.conn.Invoke(ctx, captureMethod, &captureRequest{}, &resp, grpc.CallContentSubtype(grpcjson.Name))
	if err != nil {
		return nil, fmt.Errorf("capture rpc: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(resp.ImagePNG))
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	return img, nil
}

// Click taps the box center; jitter and tap delay are bridge-side.
func (b *RemoteBridge) Click(box Box, clicks int) {
	if clicks < 1 {
		clicks = 1
	}
	cx, cy := box.Center()
	ctx, cancel := context.WithTimeout(context.Background(), b.deadline)
	defer cancel()

	var resp ackResponse
	err := b.conn.Invoke(ctx, clickMethod, &clickRequest{X: cx, Y: cy, Clicks: clicks}, &resp,
		grpc.CallContentSubtype(grpcjson.Name))
	if err != nil {
		log.Printf("[agent] click rpc failed: %v", err)
	}
}

// Scroll drags from the anchor center by dy.
func (b *RemoteBridge) Scroll(anchor Box, dy int) {
	cx, cy := anchor.Center()
	ctx, cancel := context.WithTimeout(context.Background(), b.deadline)
	defer cancel()

	var resp ackResponse
	err := b.conn.Invoke(ctx, scrollMethod, &scrollRequest{X: cx, Y: cy, Dy: dy}, &resp,
		grpc.CallContentSubtype(grpcjson.Name))
	if err != nil {
		log.Printf("[agent] scroll rpc failed: %v", err)
	}
}

// Interface check.
var _ Controller = (*RemoteBridge)(nil)

// #endregion remote-bridge
