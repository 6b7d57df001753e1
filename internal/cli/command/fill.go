package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supportform/internal/cli/output"
	"github.com/yndnr/supportform/internal/cli/repl"
	"github.com/yndnr/supportform/internal/core/domain"
)

// FillCommand returns the interactive fill command.
func FillCommand() *cli.Command {
	return &cli.Command{
		Name:   "fill",
		Usage:  "Fill in the application interactively",
		Action: fillAction,
	}
}

func fillAction(c *cli.Context) error {
	return withRuntime(c, func(rt *Runtime) error {
		in := c.App.Reader
		if in == nil {
			in = os.Stdin
		}
		out := stdout(c)
		show := func(data any) error {
			return output.NewFormatter(ParseGlobalFlags(c).Output).Format(out, data)
		}
		draft := func() error { return show(newDraftView(rt.Wizard.Snapshot())) }

		// last holds the most recent suggestion per field for apply.
		last := map[domain.Field]string{}

		commands := []repl.Command{
			{Name: "show", Usage: "Show the draft", Run: func(context.Context, string) error {
				return draft()
			}},
			{Name: "set", Args: "FIELD=VALUE", Usage: "Answer a field; the value runs to the end of the line", Run: func(_ context.Context, rest string) error {
				p, err := domain.ParseAssignment(rest)
				if err != nil {
					return err
				}
				if err := rt.Wizard.UpdateFormData(p); err != nil {
					return err
				}
				return draft()
			}},
			{Name: "step", Args: "N", Usage: "Jump to a step", Run: func(_ context.Context, rest string) error {
				n, err := strconv.Atoi(rest)
				if err != nil {
					return fmt.Errorf("invalid step %q", rest)
				}
				rt.Wizard.SetCurrentStep(n)
				return draft()
			}},
			{Name: "next", Usage: "Validate this step and continue", Run: func(context.Context, string) error {
				if _, errs := rt.Wizard.NextStep(); len(errs) > 0 {
					return show([]domain.FieldError(errs))
				}
				return draft()
			}},
			{Name: "previous", Usage: "Go back one step", Run: func(context.Context, string) error {
				rt.Wizard.PreviousStep()
				return draft()
			}},
			{Name: "reset", Usage: "Discard the draft", Run: func(ctx context.Context, _ string) error {
				if err := waitReset(ctx, rt.Wizard.ResetForm()); err != nil {
					return err
				}
				clear(last)
				return draft()
			}},
			{Name: "fields", Usage: "List the form fields", Run: func(context.Context, string) error {
				return draftFields(c)
			}},
			{Name: "assist", Args: "FIELD [NOTES]", Usage: "Suggest text for a narrative field", Run: func(ctx context.Context, rest string) error {
				name, notes, _ := strings.Cut(rest, " ")
				if name == "" {
					return errors.New("usage: assist FIELD [NOTES]")
				}
				field := domain.Field(name)
				text, err := rt.Assist.Suggest(ctx, field, notes)
				if err != nil {
					return err
				}
				last[field] = text
				_, err = fmt.Fprintf(out, "%s\n(apply %s to use it)\n", text, field)
				return err
			}},
			{Name: "apply", Args: "FIELD", Usage: "Use the last suggestion for FIELD", Run: func(_ context.Context, rest string) error {
				field := domain.Field(rest)
				text, ok := last[field]
				if !ok {
					return fmt.Errorf("no suggestion for %q yet", rest)
				}
				if err := rt.Assist.Apply(field, text); err != nil {
					return err
				}
				delete(last, field)
				return draft()
			}},
			{Name: "submit", Usage: "Submit the application", Run: func(ctx context.Context, _ string) error {
				result, err := rt.Submission.Submit(ctx)
				var fields domain.ValidationErrors
				if errors.As(err, &fields) {
					return show([]domain.FieldError(fields))
				}
				if err != nil {
					return err
				}
				if err := waitReset(ctx, rt.Wizard.ResetForm()); err != nil {
					return err
				}
				clear(last)
				return show(result)
			}},
		}

		fmt.Fprintln(out, "Type help for commands. Answers are saved as you go.")
		if err := draft(); err != nil {
			return err
		}
		return repl.New(in, out, commands).Run(c.Context)
	})
}
