package guardrail

import (
	"context"
)

// MockGenerator is a mock implementation of Generator.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error)
	ModelsFunc   func() []ModelInfo
	CloseFunc    func() error
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, config)
	}
	return &Result{}, nil
}

func (m *MockGenerator) Models() []ModelInfo {
	if m.ModelsFunc != nil {
		return m.ModelsFunc()
	}
	return []ModelInfo{}
}

func (m *MockGenerator) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
