package main

import (
	"strings"

	"github.com/d2verb/toolbridge/internal/providers"
	"github.com/posener/complete"
)

// providerPredictor completes provider definition names.
type providerPredictor struct {
	dir func() (string, error)
}

func newProviderPredictor() complete.Predictor {
	return &providerPredictor{dir: func() (string, error) {
		paths, err := getPaths()
		if err != nil {
			return "", err
		}
		return paths.Providers, nil
	}}
}

// Predict implements complete.Predictor interface.
func (p *providerPredictor) Predict(args complete.Args) []string {
	dir, err := p.dir()
	if err != nil {
		return nil
	}
	return completeProviders(dir, args.Last)
}

// completeProviders returns provider names starting with partial.
func completeProviders(dir, partial string) []string {
	names, err := providers.NewLoader(dir).List()
	if err != nil && len(names) == 0 {
		return nil
	}

	results := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, partial) {
			results = append(results, name)
		}
	}
	return results
}
