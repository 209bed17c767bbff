package perception

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

	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/grpcjson"
)

// #endregion

// #region wire-types

type wireBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type wireDetection struct {
	Class string  `json:"class"`
	Conf  float64 `json:"conf"`
	Box   wireBox `json:"box"`
}

type detectRequest struct {
	ImagePNG []byte `json:"image_png"`
}

type detectResponse struct {
	Detections []wireDetection `json:"detections"`
}

type ocrRequest struct {
	ImagePNG []byte  `json:"image_png"`
	ROI      wireBox `json:"roi"`
	Charset  string  `json:"charset,omitempty"`
}

type ocrResponse struct {
	Text string  `json:"text"`
	Conf float64 `json:"conf"`
}

// #endregion wire-types

// #region client

const (
	detectMethod = "/vision.Perception/Detect"
	ocrMethod    = "/vision.Perception/Ocr"
)

// RemoteClient talks to an out-of-process vision service over gRPC. Every
// call carries a hard deadline of twice the Waiter poll interval; a deadline
// miss degrades to an empty observation rather than an error so the Waiter
// simply keeps polling.
type RemoteClient struct {
	conn     *grpc.ClientConn
	deadline time.Duration
	charset  string
}

// NewRemoteClient connects to the vision service. pollInterval is the Waiter
// interval the deadline is derived from.
func NewRemoteClient(addr string, pollInterval time.Duration) (*RemoteClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &RemoteClient{conn: conn, deadline: 2 * pollInterval}, nil
}

// Close shuts down the gRPC connection.
func (c *RemoteClient) Close() error {
	return c.conn.Close()
}

// WithCharset returns a view of the client that passes an allowed-charset
// hint to the OCR backend.
func (c *RemoteClient) WithCharset(charset string) *RemoteClient {
	clone := *c
	clone.charset = charset
	return &clone
}

// Detect implements Detector against the remote service.
func (c *RemoteClient) Detect(img image.Image) ([]Detection, error) {
	payload, err := encodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.deadline)
	defer cancel()

	var resp detectResponse
	err = c.conn.Invoke(ctx, detectMethod, &detectRequest{ImagePNG: payload}, &resp,
		grpc.CallContentSubtype(grpcjson.Name))
	if err != nil {
		if ctx.Err() != nil {
			log.Printf("[waiter] remote detect deadline (%.0fms); treating as empty set", c.deadline.Seconds()*1000)
			return nil, nil
		}
		return nil, fmt.Errorf("detect rpc: %w", err)
	}

	dets := make([]Detection, len(resp.Detections))
	for i, d := range resp.Detections {
		dets[i] = Detection{
			Index: i,
			Class: d.Class,
			Conf:  d.Conf,
			Box:   controller.Box{X1: d.Box.X1, Y1: d.Box.Y1, X2: d.Box.X2, Y2: d.Box.Y2},
		}
	}
	return dets, nil
}

// Text implements OCR against the remote service.
func (c *RemoteClient) Text(img image.Image, roi controller.Box) (OCRResult, error) {
	payload, err := encodePNG(img)
	if err != nil {
		return OCRResult{}, fmt.Errorf("encode frame: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.deadline)
	defer cancel()

	var resp ocrResponse
	err = c.conn.Invoke(ctx, ocrMethod, &ocrRequest{
		ImagePNG: payload,
		ROI:      wireBox{X1: roi.X1, Y1: roi.Y1, X2: roi.X2, Y2: roi.Y2},
		Charset:  c.charset,
	}, &resp, grpc.CallContentSubtype(grpcjson.Name))
	if err != nil {
		if ctx.Err() != nil {
			return OCRResult{}, nil
		}
		return OCRResult{}, fmt.Errorf("ocr rpc: %w", err)
	}
	return OCRResult{Text: resp.Text, Conf: resp.Conf}, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// #endregion client
