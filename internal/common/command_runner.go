package common

import (
	"context"
	"io"
	"time"

	"atscore/internal/errors"
)

// LogDetailsFunc logs the start of an operation
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc is one pipeline call made on behalf of a CLI command
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunCommand runs op on input and writes its formatted result. The output
// destination is checked before op runs so a bad --output path fails fast.
// The output is returned so callers can inspect it after it was written.
func RunCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	out io.Writer,
	cmdConfig CommandConfig,
	input Input,
	op OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) (Output, error) {
	var zero Output
	logger = errors.OrNop(logger)

	outputHandler := NewOutputHandlerTo(out, logger)
	if err := outputHandler.fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return zero, err
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	start := time.Now()
	result, err := op(ctx, input)
	if err != nil {
		return zero, err
	}
	logger.Debug("Command operation finished", "duration", time.Since(start))

	if err := outputHandler.HandleOutput(result, cmdConfig); err != nil {
		return zero, err
	}
	return result, nil
}
