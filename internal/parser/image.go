package parser

import (
	"context"
	"log/slog"

	"github.com/dgallion1/docqa/internal/document"
	"github.com/dgallion1/docqa/internal/generate"
)

// ImagePlaceholder is stored when no text could be obtained for an image.
const ImagePlaceholder = "Image uploaded successfully. No readable text was detected in this image."

// ImageExtractor asks the generation collaborator for the text in an image,
// then for a description, and always yields exactly one page.
type ImageExtractor struct {
	Gen generate.Generator
	Log *slog.Logger
}

func (p *ImageExtractor) Name() string { return "image" }

func (p *ImageExtractor) Match(filename, mimeType string) bool {
	return IsImage(filename, mimeType)
}

func (p *ImageExtractor) Extract(ctx context.Context, data []byte, mimeType string) []document.Page {
	if len(data) == 0 {
		return nil
	}
	return []document.Page{{Number: 1, Text: p.imageText(ctx, data, mimeType)}}
}

func (p *ImageExtractor) imageText(ctx context.Context, data []byte, mimeType string) string {
	if p.Gen == nil {
		return ImagePlaceholder
	}
	if text, ok := p.Gen.ExtractImageText(ctx, data, mimeType); ok {
		if text = document.Clean(text); text != "" {
			return text
		}
	}
	if text, ok := p.Gen.DescribeImage(ctx, data, mimeType); ok {
		if text = document.Clean(text); text != "" {
			return text
		}
	}
	if p.Log != nil {
		p.Log.Info("no text obtained for image; storing placeholder", "mime_type", mimeType)
	}
	return ImagePlaceholder
}
