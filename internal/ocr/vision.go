package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

// DefaultVisionHints mirrors the tesseract eng+chi_sim language pair.
var DefaultVisionHints = []string{"en", "zh"}

// Vision recognizes text with Google Cloud Vision document text detection.
// Credentials come from the environment (GOOGLE_APPLICATION_CREDENTIALS).
type Vision struct {
	client *vision.ImageAnnotatorClient
	hints  []string
	logger *slog.Logger
}

func NewVision(ctx context.Context, hints []string, logger *slog.Logger) (*Vision, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(hints) == 0 {
		hints = DefaultVisionHints
	}
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}
	return &Vision{client: client, hints: hints, logger: logger}, nil
}

func (v *Vision) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}

	resp, err := v.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: buf.Bytes()},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			ImageContext: &visionpb.ImageContext{
				LanguageHints: v.hints,
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", fmt.Errorf("vision returned no responses")
	}
	r := resp.GetResponses()[0]
	if e := r.GetError(); e != nil && e.GetCode() != 0 {
		return "", fmt.Errorf("vision annotate: %s (code %d)", e.GetMessage(), e.GetCode())
	}
	txt := r.GetFullTextAnnotation().GetText()
	v.logger.Debug("vision ok", "bytes_in", buf.Len(), "chars_out", len(txt))
	return txt, nil
}

// Close closes the Vision client
func (v *Vision) Close() error {
	return v.client.Close()
}
