package common

import (
	"context"
	"io"

	"dreamforge/internal/auth"
	"dreamforge/internal/errors"
)

// PrincipalResolver maps an account email to the principal commands act as
type PrincipalResolver func(ctx context.Context, email string) (auth.Principal, error)

// CareerOperationFunc runs one career operation on behalf of a principal
type CareerOperationFunc[Output any] func(ctx context.Context, p auth.Principal) (Output, error)

// RunCareerCommand resolves the account behind email, runs op as that user and
// writes the formatted result to out (or cmdConfig.OutputFile).
func RunCareerCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	out io.Writer,
	email string,
	resolve PrincipalResolver,
	op CareerOperationFunc[Output],
) error {
	principal, err := resolve(ctx, email)
	if err != nil {
		return err
	}

	if logger != nil {
		logger.Debug("Running command as user", "user_id", principal.UserID, "format", cmdConfig.OutputFormat)
	}

	result, err := op(ctx, principal)
	if err != nil {
		return err
	}

	return NewOutputHandlerTo(out, logger).HandleOutput(result, cmdConfig)
}
