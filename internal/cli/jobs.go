package cli

import (
	"context"
	"strings"

	"dreamforge/internal/auth"
	"dreamforge/internal/common"
	"dreamforge/internal/types"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs <email> [query...]",
	Short: "Search job feeds and score postings against a user's skills",
	Long: `Query the configured job feeds and rank the postings by how well they match the
user's skill profile. Without a query, the user's current role is used.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: validateFormatFlag,
	RunE:    runJobs,
}

func init() {
	addOutputFlags(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)
	email := args[0]
	query := strings.Join(args[1:], " ")

	app, err := newApplication(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer app.Close()

	return common.RunCareerCommand(ctx, logger, outputConfig(cmd), cmd.OutOrStdout(), email, app.resolvePrincipal,
		func(ctx context.Context, p auth.Principal) (types.JobSearchResult, error) {
			return app.career.SearchJobs(ctx, p, query)
		})
}
