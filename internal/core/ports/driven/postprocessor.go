package driven

import (
	"context"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// PostProcessor enriches an extraction result after chapters and tables
// have been bounded (e.g. keyword tagging, function potential).
// PostProcessors are chained in a pipeline.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process modifies the result in place.
	Process(ctx context.Context, result *domain.ExtractionResult) error
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the result through all processors in order.
	Process(ctx context.Context, result *domain.ExtractionResult) error
}
