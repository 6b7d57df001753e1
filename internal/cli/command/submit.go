package command

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supportform/internal/cli/output"
	"github.com/yndnr/supportform/internal/core/domain"
)

// SubmitCommand returns the submit command.
func SubmitCommand() *cli.Command {
	return &cli.Command{
		Name:   "submit",
		Usage:  "Validate and submit the application, then clear the draft",
		Action: submitAction,
	}
}

func submitAction(c *cli.Context) error {
	return withRuntime(c, func(rt *Runtime) error {
		var spinner *output.Spinner
		if ParseGlobalFlags(c).Output == output.FormatTable {
			spinner = output.NewSpinner(stderr(c), "Submitting application")
			spinner.Start()
		}

		result, err := rt.Submission.Submit(c.Context)

		var fields domain.ValidationErrors
		switch {
		case errors.As(err, &fields):
			stopSpinner(spinner, "")
			if rerr := render(c, []domain.FieldError(fields)); rerr != nil {
				return rerr
			}
			return err
		case err != nil:
			stopSpinner(spinner, result.Message)
			return err
		}

		if spinner != nil {
			spinner.Success(result.Message)
		}
		if err := waitReset(c.Context, rt.Wizard.ResetForm()); err != nil {
			return err
		}
		rt.Compact(c.Context)
		return render(c, result)
	})
}

// stopSpinner stops s, reporting msg as a failure when it is set.
func stopSpinner(s *output.Spinner, msg string) {
	if s == nil {
		return
	}
	if msg == "" {
		s.Stop()
		return
	}
	s.Fail(msg)
}
