package media

import (
	"context"
	"fmt"
	"strings"
)

// AssetOptimizer turns a source image URL into an OptimizedAsset.
type AssetOptimizer struct {
	provider OptimizationProvider
	options  OptimizeOptions
}

// NewAssetOptimizer creates an optimizer bound to provider.
func NewAssetOptimizer(provider OptimizationProvider, options OptimizeOptions) *AssetOptimizer {
	if options == nil {
		options = DefaultOptimizeOptions()
	}
	return &AssetOptimizer{provider: provider, options: options}
}

// Optimize asks the provider for an optimized copy of sourceURL and downloads it.
// Every failure is reported as an OptimizationFailed error.
func (o *AssetOptimizer) Optimize(ctx context.Context, sourceURL string) (*OptimizedAsset, error) {
	if o.provider == nil {
		return nil, optimizationFailed("no optimization provider configured", nil)
	}
	if strings.TrimSpace(sourceURL) == "" {
		return nil, optimizationFailed("source url is required", nil)
	}

	resultURL, err := o.provider.Optimize(ctx, sourceURL, o.options)
	if err != nil {
		return nil, optimizationFailed("optimize request failed", err)
	}
	if strings.TrimSpace(resultURL) == "" {
		return nil, optimizationFailed("provider returned an empty result url", nil)
	}

	payload, err := o.provider.FetchBytes(ctx, resultURL)
	if err != nil {
		return nil, optimizationFailed("fetch optimized asset failed", err)
	}
	if len(payload) == 0 {
		return nil, optimizationFailed(fmt.Sprintf("optimized asset %s is empty", resultURL), nil)
	}

	return &OptimizedAsset{
		SourceURL:    sourceURL,
		OptimizedURL: resultURL,
		Payload:      payload,
		Length:       len(payload),
	}, nil
}
