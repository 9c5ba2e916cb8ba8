package cli

import (
	"context"
	"path/filepath"

	"dreamforge/internal/auth"
	"dreamforge/internal/common"
	"dreamforge/internal/types"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <email> <resume-file>",
	Short: "Analyze a resume file for an existing user",
	Long: `Extract text from a resume (txt, md, pdf or docx), analyze it with the configured
AI model and store the resulting skills, level and XP on the user's profile.

The user must already be registered, either through the API or a previous run.`,
	Args:              cobra.ExactArgs(2),
	PreRunE:           validateFormatFlag,
	ValidArgsFunction: cobra.NoFileCompletions,
	RunE:              runIngest,
}

func init() {
	addOutputFlags(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)
	email, filename := args[0], args[1]

	data, err := common.NewFileProcessor(logger).ReadResume(filename, cfg.App.MaxFileSize)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer app.Close()

	return common.RunCareerCommand(ctx, logger, outputConfig(cmd), cmd.OutOrStdout(), email, app.resolvePrincipal,
		func(ctx context.Context, p auth.Principal) (types.AnalysisResult, error) {
			return app.career.UploadResume(ctx, p, filepath.Base(filename), "", data)
		})
}

// addOutputFlags registers --format and --output with completion for the configured formats
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", "Output format (default from config)")
	cmd.Flags().StringP("output", "o", "", "Write output to file instead of stdout")
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func validateFormatFlag(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	return common.ValidateOutputFormat(outputConfig(cmd).OutputFormat, common.GetSupportedFormats(cfg.App.SupportedFormats))
}

func outputConfig(cmd *cobra.Command) common.CommandConfig {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = getConfigFromContext(cmd.Context()).App.DefaultFormat
	}
	output, _ := cmd.Flags().GetString("output")
	return common.CommandConfig{OutputFile: output, OutputFormat: format}
}
