package perception

// #region imports
import (
	"fmt"
	"image"
	"time"

	"github.com/danielpatrickdp/careerpilot/internal/controller"
)

// #endregion

// #region detection

// Detection is a single labeled box from the detector, in frame coordinates.
// Class labels belong to the closed vocabulary trained per scenario
// (lobby_* tiles, button_* affordances, race_* markers, support_* portraits).
type Detection struct {
	Index int
	Class string
	Conf  float64
	Box   controller.Box
}

// #endregion detection

// #region ocr

// OCRResult is the recognized text for one ROI with an aggregate confidence.
type OCRResult struct {
	Text string
	Conf float64
}

// OCR reads text from a region of a frame image. Implementations may be local
// or remote; the core treats them as pure per-frame functions and never
// assumes thread safety.
type OCR interface {
	Text(img image.Image, roi controller.Box) (OCRResult, error)
}

// Detector returns the labeled boxes for a frame image.
type Detector interface {
	Detect(img image.Image) ([]Detection, error)
}

// #endregion ocr

// #region frame

// Frame bundles one captured image with its detection set and a per-tick OCR
// cache keyed by ROI. Frames live exactly one tick.
type Frame struct {
	Image      image.Image
	TakenAt    time.Time
	Detections []Detection

	ocrCache map[string]OCRResult
}

// NewFrame wraps a capture and its detections.
func NewFrame(img image.Image, dets []Detection) *Frame {
	return &Frame{
		Image:      img,
		TakenAt:    time.Now(),
		Detections: dets,
		ocrCache:   make(map[string]OCRResult),
	}
}

// ReadText OCRs the ROI, memoizing per frame so repeated guards on the same
// box cost a single engine call.
func (f *Frame) ReadText(engine OCR, roi controller.Box) (OCRResult, error) {
	key := roiKey(roi)
	if cached, ok := f.ocrCache[key]; ok {
		return cached, nil
	}
	if engine == nil {
		return OCRResult{}, nil
	}
	res, err := engine.Text(f.Image, roi)
	if err != nil {
		return OCRResult{}, err
	}
	if f.ocrCache == nil {
		f.ocrCache = make(map[string]OCRResult)
	}
	f.ocrCache[key] = res
	return res, nil
}

func roiKey(b controller.Box) string {
	return fmt.Sprintf("%d:%d:%d:%d", int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
}

// #endregion frame
