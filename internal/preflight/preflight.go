package preflight

import (
	"context"
	"strings"

	"highlighter/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// The recorder owns the live root; work dirs default to sitting inside it.
	results = append(results, CheckDirectoryAccess("Live root", cfg.Paths.LiveRootDir))
	if strings.TrimSpace(cfg.Paths.WorkDir) != "" {
		results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	}
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Clips.Enabled && strings.TrimSpace(cfg.Clips.Dir) != "" {
		results = append(results, CheckDirectoryAccess("Clip directory", cfg.Clips.Dir))
	}

	results = append(results,
		CheckClassifier(ctx, "Sentiment classifier", cfg.Classifiers.SentimentURL),
		CheckClassifier(ctx, "Emotion classifier", cfg.Classifiers.EmotionURL),
	)

	if llmCfg := cfg.GetLLM(); llmCfg.Enabled() {
		results = append(results, CheckLLM(ctx, "Title LLM", llmCfg))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
