package cli

import (
	"context"
	"fmt"

	"atscore/internal/common"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	common.CommandConfig
	ResumeFile string
	TextFile   string
	JobFile    string
	Enhanced   bool
	APIKey     string
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a resume for ATS compatibility",
		Long: `Analyze a resume the way an applicant tracking system would and report:
- ATS compliance checks (contact details, sections, length)
- Keyword matching against an optional job description
- Impact of experience bullets (action verbs, quantified results)
- Formatting quality
- A weighted 0-100 score with prioritized improvement suggestions

The resume can be a PDF, DOCX, Markdown or plain text file.`,
		Example: `  atscore analyze --resume resume.pdf --job job.txt
  atscore analyze --text-file resume.txt --format markdown -o report.md
  atscore analyze --resume resume.docx --enhanced --api-key $GEMINI_API_KEY`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			format, err := common.ResolveOutputFormat(opts.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
			if err != nil {
				return err
			}
			opts.OutputFormat = format
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ResumeFile, "resume", "r", "", "Resume file (.pdf, .docx, .txt, .md)")
	cmd.Flags().StringVar(&opts.TextFile, "text-file", "", "Plain text file holding the resume text")
	cmd.Flags().StringVarP(&opts.JobFile, "job", "j", "", "Job description file")
	cmd.Flags().BoolVar(&opts.Enhanced, "enhanced", false, "Request LLM-enhanced feedback")
	cmd.Flags().StringVar(&opts.APIKey, "api-key", "", "Model API key for enhanced feedback (default from config)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "", "Output format: json, text, or markdown")

	cmd.MarkFlagsMutuallyExclusive("resume", "text-file")
	cmd.MarkFlagsOneRequired("resume", "text-file")
	registerFormatCompletion(cmd)

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts analyzeOptions) error {
	ctx := cmd.Context()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	logger := getLoggerFromContext(ctx)
	files := common.NewFileProcessor(logger)

	req := types.AnalyzeRequest{UseEnhancedFeedback: opts.Enhanced}
	if opts.ResumeFile != "" {
		if err := files.ValidateResumeFile(opts.ResumeFile); err != nil {
			return err
		}
		req.ResumePath = opts.ResumeFile
	} else {
		if req.ResumeText, err = files.ReadFile(opts.TextFile); err != nil {
			return err
		}
	}
	if req.JobDescription, err = files.ReadOptionalText(opts.JobFile); err != nil {
		return err
	}
	if opts.Enhanced {
		req.FeedbackAPIKey = opts.APIKey
		if req.FeedbackAPIKey == "" {
			req.FeedbackAPIKey = cfg.GetSuggestConfig().APIKey
		}
	}

	pipeline, err := common.BuildPipeline(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.LogError(err, "Failed to release pipeline resources")
		}
	}()

	logDetails := func(req types.AnalyzeRequest, c common.CommandConfig) {
		logger.Info("Starting resume analysis",
			"resume", firstNonEmpty(opts.ResumeFile, opts.TextFile),
			"job_description", req.JobDescription != nil,
			"enhanced_feedback", req.UseEnhancedFeedback,
			"output_format", c.OutputFormat)
	}

	result, err := common.RunCommand(ctx, logger, cmd.OutOrStdout(), opts.CommandConfig, req,
		func(ctx context.Context, req types.AnalyzeRequest) (*types.UnifiedResult, error) {
			return pipeline.Analyzer.Analyze(ctx, req)
		},
		logDetails,
	)
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	if result.IsError() {
		return fmt.Errorf("analysis failed: %s", result.Metadata.ErrorMessage)
	}

	logger.Info("Resume analysis completed",
		"ats_score", result.ATSScore,
		"grade", result.Metadata.Grade,
		"suggestions", result.Metadata.TotalSuggestions,
		"cached", result.Metadata.Cached)
	return nil
}

// registerFormatCompletion completes --format from the registered formatters
func registerFormatCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
