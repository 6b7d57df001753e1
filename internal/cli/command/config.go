package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supportform/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Check the configuration without opening the store",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, err := loadConfig(ParseGlobalFlags(c))
	if err != nil {
		return err
	}
	return render(c, config.Sanitize(cfg))
}

func configValidate(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	if _, err := loadConfig(flags); err != nil {
		return err
	}
	source := flags.Config
	if source == "" {
		source = "defaults and environment"
	}
	_, err := fmt.Fprintf(stdout(c), "configuration OK (%s)\n", source)
	return err
}
