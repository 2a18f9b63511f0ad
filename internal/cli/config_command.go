package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/sdmap/internal/config"
	"github.com/temirov/sdmap/internal/types"
)

const (
	configUse                  = types.CommandConfig
	configShortDescription     = "manage sdmap configuration"
	configInitUse              = types.CommandConfigInit
	configInitShortDescription = "write the default configuration file"
	configInitLongDescription  = `Write config.yaml with the built-in defaults into the working directory,
or into ~/.sdmap with --global. An existing file is kept unless --force is given.`

	globalFlagName        = "global"
	forceFlagName         = "force"
	globalFlagDescription = "write the global configuration instead of the local one"
	forceFlagDescription  = "overwrite an existing configuration file"

	configWrittenFormat = "Configuration written to %s\n"
)

func createConfigCommand(app *application) *cobra.Command {
	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	var global bool
	var force bool
	initCommand := &cobra.Command{
		Use:   configInitUse,
		Short: configInitShortDescription,
		Long:  configInitLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			workingDirectory, err := app.workingDirectory()
			if err != nil {
				return err
			}
			writtenPath, err := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: workingDirectory,
			})
			if err != nil {
				return err
			}
			_, writeErr := fmt.Fprintf(app.dependencies.Stdout, configWrittenFormat, writtenPath)
			return writeErr
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	configCommand.AddCommand(initCommand)
	return configCommand
}
