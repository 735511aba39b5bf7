package asr

import (
	"fmt"
)

// NewDashScopeProvider 在具备 API Key 和音频源时提供基于 DashScope 的引擎
func NewDashScopeProvider(cfg Config, openSource SourceOpener) Provider {
	return ProviderFunc(func() (Engine, error) {
		if openSource == nil {
			return nil, fmt.Errorf("%w: no audio input", ErrUnavailable)
		}
		factory, err := NewDashScopeFactory(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return NewStreamEngine(factory, openSource), nil
	})
}
