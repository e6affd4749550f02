package cli

import (
	"context"

	"atscore/internal/common"
	"atscore/internal/extractor"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

type structureOptions struct {
	common.CommandConfig
	ResumeFile string
}

func newStructureCmd() *cobra.Command {
	var opts structureOptions

	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Parse a resume into contact, summary, skills, experience and education",
		Long: `Extract the text of a resume and split it into the structured form used
for scoring. Useful for checking how the parser reads a document.`,
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
			return runStructure(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ResumeFile, "resume", "r", "", "Resume file (.pdf, .docx, .txt, .md)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "", "Output format: json, text, or markdown")
	_ = cmd.MarkFlagRequired("resume")
	registerFormatCompletion(cmd)

	return cmd
}

func runStructure(cmd *cobra.Command, opts structureOptions) error {
	ctx := cmd.Context()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	logger := getLoggerFromContext(ctx)

	if err := common.NewFileProcessor(logger).ValidateResumeFile(opts.ResumeFile); err != nil {
		return err
	}

	pipeline, err := common.BuildPipeline(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pipeline.Close() }()

	ext := extractor.New(cfg.App.MaxFileSize, logger)

	_, err = common.RunCommand(ctx, logger, cmd.OutOrStdout(), opts.CommandConfig, opts.ResumeFile,
		func(ctx context.Context, path string) (*types.StructuredResume, error) {
			text, err := ext.Extract(ctx, path)
			if err != nil {
				return nil, err
			}
			return pipeline.Analyzer.Structure(ctx, text)
		},
		func(path string, c common.CommandConfig) {
			logger.Info("Structuring resume", "resume", path, "output_format", c.OutputFormat)
		},
	)
	return err
}
