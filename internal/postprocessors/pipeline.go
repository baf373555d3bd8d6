// Package postprocessors provides extraction result enrichment implementations.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline chains multiple PostProcessors and runs them in order.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the result through all processors in order.
// The first failing processor stops the pipeline.
func (p *Pipeline) Process(ctx context.Context, result *domain.ExtractionResult) error {
	if result == nil {
		return fmt.Errorf("extraction result is nil")
	}

	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := processor.Process(ctx, result); err != nil {
			return fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.processors))
	for _, processor := range p.processors {
		names = append(names, processor.Name())
	}
	return names
}
