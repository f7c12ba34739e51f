// Package cli provides the command line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/polli-labs/repoexport/internal/config"
	"github.com/polli-labs/repoexport/internal/export"
	"github.com/polli-labs/repoexport/internal/services/clipboard"
	"github.com/polli-labs/repoexport/internal/tokenizer"
	"github.com/polli-labs/repoexport/internal/utils"
)

const (
	rootUse              = "repoexport <config.json|directory>"
	rootShortDescription = "repoexport packs a repository into one LLM-ready context document"
	rootLongDescription  = `repoexport walks a repository, selects files through configurable include and
exclude rules, and writes a single tagged document containing a directory
tree with line and token statistics followed by the raw file contents.
Pass a JSON configuration file, or a directory to export it with defaults.
Use --dump-config to embed the resolved configuration in the document,
--clipboard to copy the document to the system clipboard, and --version to
print the application version.`

	dumpConfigFlagName        = "dump-config"
	dumpConfigFlagDescription = "embed the resolved configuration in the exported document"
	clipboardFlagName         = "clipboard"
	clipboardFlagDescription  = "copy the exported document to the system clipboard"
	versionFlagName           = "version"
	versionFlagDescription    = "display application version"
	versionTemplate           = "repoexport version: %s\n"

	initUse                  = "init"
	initShortDescription     = "write a starter configuration file"
	initLongDescription      = "init writes a starter repoexport.json with the default settings into the working directory, or with --global into $HOME/.config/repoexport where repoexport searches for named configurations."
	globalFlagName           = "global"
	globalFlagDescription    = "write the configuration to the user configuration directory"
	forceFlagName            = "force"
	forceFlagDescription     = "overwrite an existing configuration file"
	initializedMessageFormat = "Wrote starter configuration to %s\n"

	missingArgumentMessage            = "expected a configuration file or a directory argument"
	clipboardServiceMissingMessage    = "clipboard service unavailable"
	clipboardCopyErrorFormat          = "failed to copy export to clipboard: %w"
	warningTokenizerUnavailableFormat = "Warning: tokenizer unavailable, token counts will be zero: %v\n"
)

// Execute runs the repoexport application.
func Execute() error {
	rootCommand := createRootCommand()
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	var dumpConfigEnabled bool
	var clipboardEnabled bool
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			if len(arguments) != 1 {
				return errors.New(missingArgumentMessage)
			}
			return runExport(exportRunOptions{
				ConfigArgument:   arguments[0],
				DumpConfig:       dumpConfigEnabled,
				ClipboardEnabled: clipboardEnabled,
				Clipboard:        clipboard.NewService(),
				Output:           command.OutOrStdout(),
				WarningOutput:    command.ErrOrStderr(),
			})
		},
	}
	rootCommand.Flags().BoolVar(&dumpConfigEnabled, dumpConfigFlagName, false, dumpConfigFlagDescription)
	rootCommand.Flags().BoolVar(&clipboardEnabled, clipboardFlagName, false, clipboardFlagDescription)
	rootCommand.Flags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(createInitCommand())
	return rootCommand
}

// createInitCommand builds the init subcommand writing a starter configuration.
func createInitCommand() *cobra.Command {
	var writeGlobal bool
	var forceOverwrite bool

	initCommand := &cobra.Command{
		Use:          initUse,
		Short:        initShortDescription,
		Long:         initLongDescription,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if writeGlobal {
				target = config.InitTargetGlobal
			}
			writtenPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target: target,
				Force:  forceOverwrite,
			})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(command.OutOrStdout(), initializedMessageFormat, writtenPath)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&writeGlobal, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&forceOverwrite, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// exportRunOptions carries the inputs and collaborators of one export
// invocation.
type exportRunOptions struct {
	ConfigArgument   string
	DumpConfig       bool
	ClipboardEnabled bool
	Clipboard        clipboard.Copier
	TokenCounter     tokenizer.Counter
	Output           io.Writer
	WarningOutput    io.Writer
}

// runExport loads or synthesizes the configuration, executes the export, and
// prints the summary. A tokenizer initialization failure downgrades to a
// warning; the export proceeds with zero token counts.
func runExport(options exportRunOptions) error {
	rawConfiguration, sourceLabel, loadError := loadConfiguration(options.ConfigArgument)
	if loadError != nil {
		return loadError
	}
	if options.DumpConfig {
		rawConfiguration.DumpConfig = true
	}
	resolvedConfiguration, resolveError := config.Resolve(rawConfiguration, sourceLabel)
	if resolveError != nil {
		return resolveError
	}

	tokenCounter := options.TokenCounter
	if tokenCounter == nil {
		constructedCounter, counterError := tokenizer.NewCounter()
		if counterError != nil {
			fmt.Fprintf(options.WarningOutput, warningTokenizerUnavailableFormat, counterError)
		} else {
			tokenCounter = constructedCounter
		}
	}

	exporter := &export.Exporter{
		Configuration: resolvedConfiguration,
		TokenCounter:  tokenCounter,
		WarningWriter: options.WarningOutput,
	}
	result, runError := exporter.Run()
	if runError != nil {
		return runError
	}
	printSummary(options.Output, result)

	if options.ClipboardEnabled {
		if options.Clipboard == nil {
			return errors.New(clipboardServiceMissingMessage)
		}
		if copyError := options.Clipboard.Copy(result.Document); copyError != nil {
			return fmt.Errorf(clipboardCopyErrorFormat, copyError)
		}
	}
	return nil
}

// loadConfiguration treats a directory argument as a request for the default
// directory-mode configuration and anything else as a configuration file
// reference.
func loadConfiguration(configArgument string) (config.RawConfiguration, string, error) {
	argumentInformation, statError := os.Stat(configArgument)
	if statError == nil && argumentInformation.IsDir() {
		rawConfiguration, sourceLabel := config.DefaultConfiguration(configArgument)
		return rawConfiguration, sourceLabel, nil
	}
	return config.Load(configArgument)
}
