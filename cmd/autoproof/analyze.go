package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/autoproof/autoproof/pkg/cache"
	"github.com/autoproof/autoproof/pkg/config"
	"github.com/autoproof/autoproof/pkg/entities"
	"github.com/autoproof/autoproof/pkg/llm"
	"github.com/autoproof/autoproof/pkg/logger"
	"github.com/autoproof/autoproof/pkg/metrics"
	"github.com/autoproof/autoproof/pkg/pipeline"
)

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	var source string
	var noLLM bool
	var noCache bool

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Run the full compliance pipeline over a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.loadEnvironment()
			if err != nil {
				return err
			}

			text, err := readInput(args)
			if err != nil {
				return err
			}

			result, runErr := runAnalysis(cmd.Context(), cfg, log, text, source, noLLM, noCache)
			if result != nil {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(result); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "manual", "content source (slack, github, gitlab, api, manual)")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip the LLM analysis stage")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")

	return cmd
}

func readInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func runAnalysis(ctx context.Context, cfg *config.Config, log *logger.Logger, text, source string, noLLM, noCache bool) (*pipeline.FullAnalysisResult, error) {
	var analyzer *llm.TieredAnalyzer
	if !noLLM {
		client := llm.NewOpenAIClient(llm.ClientConfig{
			APIKey:     cfg.LLM.APIKey,
			BaseURL:    cfg.LLM.BaseURL,
			MaxRetries: cfg.LLM.MaxRetries,
			Timeout:    cfg.LLM.RequestTimeout,
			Throttle:   llm.NewThrottle(cfg.LLM.ThrottleInterval),
		}, log)

		analyzer = llm.NewTieredAnalyzer(client, llm.AnalyzerConfig{
			BulkModel:      cfg.LLM.BulkModel,
			EscalatedModel: cfg.LLM.EscalatedModel,
			ReplyTokens:    cfg.LLM.ReplyTokens,
			Temperature:    cfg.LLM.Temperature,
			PromptBudget:   cfg.LLM.PromptBudget,
		}, log)
	}

	resultCache, err := buildCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	if resultCache != nil {
		defer resultCache.Close()
	}

	tagger := entities.NewTagger(nil, log,
		entities.WithThreshold(cfg.Pipeline.EntityConfidenceThreshold),
		entities.WithTimeout(cfg.Pipeline.EntityTimeout),
	)

	p := pipeline.New(pipeline.Options{
		Tagger:   tagger,
		Analyzer: analyzer,
		Cache:    resultCache,
		CacheTTL: cfg.Cache.TTL,
		Metrics:  metrics.NewNop(),
		Logger:   log,
	})

	return p.RunFullAnalysis(ctx, text, source)
}

func buildCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.ResultCache, error) {
	if noCache || !cfg.Cache.Enabled {
		return nil, nil
	}

	if cfg.Cache.Backend == "redis" {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect result cache: %w", err)
		}
		return redisCache, nil
	}

	return cache.NewMemoryCache(cfg.Cache.MaxEntries), nil
}
