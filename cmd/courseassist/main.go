package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/boswallah/course-assistant/config"
	"github.com/boswallah/course-assistant/internal/answer"
	"github.com/boswallah/course-assistant/internal/dataset"
	"github.com/boswallah/course-assistant/internal/escalate"
	"github.com/boswallah/course-assistant/internal/index"
	"github.com/boswallah/course-assistant/internal/language"
	"github.com/boswallah/course-assistant/internal/pipeline"
	srv "github.com/boswallah/course-assistant/internal/server"
	"github.com/boswallah/course-assistant/internal/translate"
	"github.com/boswallah/course-assistant/provider"
	"github.com/boswallah/course-assistant/tools/websearch"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{Use: "courseassist"}

	var cfgPath string
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.yaml)")

	root.AddCommand(serveCMD(&cfgPath), rebuildCMD(&cfgPath), askCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			return srv.Run(cfg, addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	return serve
}

func rebuildCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Re-embed the course catalog into the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			llm, err := provider.NewProvider(provider.Gemini, cfg.LLM)
			if err != nil {
				return err
			}
			courses, err := dataset.LoadCourses(cfg.Storage.CoursesCSV)
			if err != nil {
				return err
			}
			idx, err := index.Open(cfg.Storage.IndexPath, llm, nil)
			if err != nil {
				return err
			}
			defer idx.Close()

			chunks := dataset.BuildChunks(courses, cfg.Retrieval.ChunkSize)
			start := time.Now()
			if err := idx.Rebuild(context.Background(), chunks); err != nil {
				return err
			}
			log.Printf("rebuilt %d chunks from %d courses in %s",
				len(chunks), len(courses), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func askCMD(cfgPath *string) *cobra.Command {
	var jsonOut bool
	ask := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single question from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			pipe, cleanup, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			result := pipe.Process(context.Background(), strings.Join(args, " "), "")
			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			if !result.Success {
				return fmt.Errorf("%s", result.Error)
			}
			fmt.Printf("[%s, confidence %.2f]\n%s\n", result.DetectedLanguage, result.Confidence, result.Answer)
			if result.WebSearchTriggered && len(result.WebSearchSources) > 0 {
				fmt.Printf("\nSources: %s\n", strings.Join(result.WebSearchSources, ", "))
			}
			return nil
		},
	}
	ask.Flags().BoolVar(&jsonOut, "json", false, "print the full result as JSON")
	return ask
}

func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	llm, err := provider.NewProvider(provider.Gemini, cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	idx, err := index.Open(cfg.Storage.IndexPath, llm, nil)
	if err != nil {
		return nil, nil, err
	}
	if idx.Count() == 0 {
		courses, err := dataset.LoadCourses(cfg.Storage.CoursesCSV)
		if err != nil {
			idx.Close()
			return nil, nil, err
		}
		chunks := dataset.BuildChunks(courses, cfg.Retrieval.ChunkSize)
		if err := idx.Rebuild(context.Background(), chunks); err != nil {
			idx.Close()
			return nil, nil, err
		}
	}

	translator := translate.NewTranslator(
		translate.NewGoogleEngine(cfg.Translation.Timeout), llm, cfg.Translation, nil)
	searcher := websearch.NewSearcher(cfg.WebSearch)
	policy := escalate.NewPolicy(cfg.WebSearch, cfg.Retrieval.InsufficientDocsLimit, searcher.Enabled)

	pipe := pipeline.New(language.NewDetector(), translator,
		index.NewRetriever(idx, cfg.Retrieval.K, nil), answer.NewGenerator(llm, nil),
		policy, searcher, nil, cfg.WebSearch.MaxResults, nil)
	return pipe, func() { idx.Close() }, nil
}
