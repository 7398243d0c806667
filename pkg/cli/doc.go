/*
Package cli provides command-line helpers shared by the gantry commands.

Output Formatting:

Results are printed as text, JSON or CSV. Types implementing Table render
as aligned columns in text mode and as rows in CSV mode:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Errors:

CommandError wraps a failing subcommand and ConfigError a single invalid
configuration field. ExitCode maps an error to the process exit status.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, cancel := cli.SetupSignalHandler(context.Background())
	defer cancel()
*/
package cli
