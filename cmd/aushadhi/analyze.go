package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vbonduro/aushadhi/internal/analysis"
	"github.com/vbonduro/aushadhi/internal/domain"
	"github.com/vbonduro/aushadhi/internal/imagedata"
)

var analyzeLang string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image-file>",
	Short: "Print a sectioned report for a medicine photo",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeLang, "lang", "", "Report language (en, np); defaults to DEFAULT_LANG")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	code := analyzeLang
	if code == "" {
		code = cfg.DefaultLang
	}
	lang, err := domain.ParseLanguage(code)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	img, err := imagedata.New(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	completer, err := newCompleter(cfg, logger)
	if err != nil {
		return err
	}

	orch := analysis.NewOrchestrator(completer, logger)
	report, err := orch.Analyze(cmd.Context(), img.DataURL(), lang, func(snap analysis.Snapshot) {
		done := 0
		for _, s := range snap {
			if s.Status != analysis.StatusLoading {
				done++
			}
		}
		logger.Info("analysis progress", "settled", done, "total", len(snap))
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), report.Text)
	return err
}
