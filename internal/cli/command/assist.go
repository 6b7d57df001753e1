package command

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supportform/internal/cli/output"
	"github.com/yndnr/supportform/internal/core/domain"
)

// AssistCommand returns the assist command.
func AssistCommand() *cli.Command {
	return &cli.Command{
		Name:      "assist",
		Usage:     "Suggest text for a narrative field",
		ArgsUsage: "FIELD [--context TEXT] [--apply]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "context",
				Usage: "Notes the suggestion should build on",
			},
			&cli.BoolFlag{
				Name:  "apply",
				Usage: "Write the suggestion into the draft",
			},
		},
		Action: assistAction,
	}
}

// suggestion is the rendered result of assist.
type suggestion struct {
	Field   string `json:"field" yaml:"field"`
	Text    string `json:"text" yaml:"text"`
	Applied bool   `json:"applied" yaml:"applied"`
}

// assistArgs holds the FIELD argument and the assist flags.
type assistArgs struct {
	field   domain.Field
	context string
	apply   bool
}

// parseAssistArgs accepts the assist flags on either side of FIELD. The
// command parser stops at the first positional, so flags written after
// FIELD are parsed here.
func parseAssistArgs(c *cli.Context) (assistArgs, error) {
	args := c.Args().Slice()
	if len(args) == 0 {
		return assistArgs{}, errors.New("exactly one FIELD is required")
	}
	a := assistArgs{
		field:   domain.Field(args[0]),
		context: c.String("context"),
		apply:   c.Bool("apply"),
	}
	if len(args) == 1 {
		return a, nil
	}

	fs := flag.NewFlagSet("assist", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&a.context, "context", a.context, "")
	fs.BoolVar(&a.apply, "apply", a.apply, "")
	if err := fs.Parse(args[1:]); err != nil {
		return assistArgs{}, fmt.Errorf("assist flags: %w", err)
	}
	if fs.NArg() > 0 {
		return assistArgs{}, errors.New("exactly one FIELD is required")
	}
	return a, nil
}

func assistAction(c *cli.Context) error {
	args, err := parseAssistArgs(c)
	if err != nil {
		return err
	}
	field := args.field

	return withRuntime(c, func(rt *Runtime) error {
		var spinner *output.Spinner
		if rt.Assist.Ready() && ParseGlobalFlags(c).Output == output.FormatTable {
			spinner = output.NewSpinner(stderr(c), "Generating suggestion")
			spinner.Start()
		}

		text, err := rt.Assist.Suggest(c.Context, field, args.context)
		stopSpinner(spinner, "")
		if err != nil {
			return err
		}

		out := suggestion{Field: string(field), Text: text}
		if args.apply {
			if err := rt.Assist.Apply(field, text); err != nil {
				return err
			}
			out.Applied = true
		}
		return render(c, out)
	})
}
