package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/agendia/booking-ai-platform/pkg/logging"
)

// MediaProcessor turns attachments into text annotations appended to the
// user message. A failing attachment only poisons its own annotation;
// remaining items are still processed.
type MediaProcessor struct {
	analyzer MediaAnalyzer
	logger   *logging.Logger
}

// NewMediaProcessor builds a processor around an analyzer capability.
func NewMediaProcessor(analyzer MediaAnalyzer, logger *logging.Logger) *MediaProcessor {
	if analyzer == nil {
		panic("assistant: media analyzer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MediaProcessor{analyzer: analyzer, logger: logger}
}

// Enrich appends one bracketed annotation per attachment to the message.
// With no attachments the message passes through unchanged.
func (p *MediaProcessor) Enrich(ctx context.Context, message string, media []MediaItem) string {
	if len(media) == 0 {
		return message
	}

	annotations := make([]string, 0, len(media))
	for _, item := range media {
		label, ok := annotationLabel(item.Kind)
		if !ok {
			continue
		}
		analysis, err := p.analyzer.Analyze(ctx, item.Content, item.MimeType, item.Kind)
		if err != nil {
			p.logger.Error("media analysis failed", "kind", string(item.Kind), "error", err)
			annotations = append(annotations, fmt.Sprintf("[Could not process %s]", item.Kind))
			continue
		}
		annotations = append(annotations, fmt.Sprintf("[%s: %s]", label, analysis))
	}

	if len(annotations) == 0 {
		return message
	}
	return message + "\n\n" + strings.Join(annotations, "\n")
}

func annotationLabel(kind MediaKind) (string, bool) {
	switch kind {
	case MediaKindImage:
		return "Image analyzed", true
	case MediaKindAudio:
		return "Audio transcribed", true
	case MediaKindDocument:
		return "Document analyzed", true
	default:
		return "", false
	}
}
