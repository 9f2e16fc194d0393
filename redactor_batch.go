package guardrail

import (
	"context"
	"fmt"
	"sync"
)

// Batch accumulates detection results across many texts, optionally
// locked to one model for the whole run.
type Batch struct {
	redactor *Redactor
	results  []*RedactionResult

	lockedModel Model
	modelLocked bool

	mu sync.Mutex
}

// NewBatch starts a batch detection session.
func (r *Redactor) NewBatch() *Batch {
	return &Batch{
		redactor: r,
		results:  make([]*RedactionResult, 0),
	}
}

// NewBatchWithModel starts a batch session locked to a specific model.
func (r *Redactor) NewBatchWithModel(model Model) *Batch {
	return &Batch{
		redactor:    r,
		results:     make([]*RedactionResult, 0),
		lockedModel: model,
		modelLocked: true,
	}
}

// BatchDetect runs detection over each text in order, stopping at the
// first failure. On error the results collected so far are returned
// alongside it.
func (r *Redactor) BatchDetect(ctx context.Context, texts []string, config *GenerateConfig) ([]*RedactionResult, error) {
	if err := ValidateTexts(texts); err != nil {
		return nil, err
	}

	batch := r.NewBatch()
	for i, text := range texts {
		if _, err := batch.Add(ctx, text, config); err != nil {
			return batch.Results(), fmt.Errorf("text %d: %w", i, err)
		}
	}

	results := batch.Results()
	summary := batch.Summary()
	r.logger.Info("batch detection completed",
		"texts", summary.Texts,
		"detections", summary.Detections,
	)

	return results, nil
}

// Add detects one text and appends the result to the batch.
func (b *Batch) Add(ctx context.Context, text string, config *GenerateConfig) (*RedactionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Determine model
	if b.modelLocked {
		if config == nil {
			config = DefaultConfig()
		}
		config = config.WithModel(b.lockedModel)
	}

	result, err := b.redactor.Detect(ctx, text, config)
	if err != nil {
		return nil, err
	}

	b.results = append(b.results, result)
	return result, nil
}

// Results returns a copy of the results collected so far.
func (b *Batch) Results() []*RedactionResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	resultsCopy := make([]*RedactionResult, len(b.results))
	copy(resultsCopy, b.results)
	return resultsCopy
}

// Clear resets the batch.
func (b *Batch) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.results = make([]*RedactionResult, 0)
}

// BatchSummary aggregates detection counts across a batch.
type BatchSummary struct {
	Texts      int
	Detections int
	ByCategory map[string]int
}

// Summary tallies the batch's results by category.
func (b *Batch) Summary() BatchSummary {
	b.mu.Lock()
	defer b.mu.Unlock()

	summary := BatchSummary{
		Texts:      len(b.results),
		ByCategory: make(map[string]int),
	}
	for _, result := range b.results {
		summary.Detections += len(result.Detections)
		for _, d := range result.Detections {
			summary.ByCategory[d.Category]++
		}
	}
	return summary
}
