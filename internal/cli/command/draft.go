package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supportform/internal/cli/output"
	"github.com/yndnr/supportform/internal/core/domain"
	"github.com/yndnr/supportform/internal/core/service"
)

// resetWait bounds how long a command waits for a reset to settle.
const resetWait = 10 * time.Second

// DraftCommand returns the draft subcommand group.
func DraftCommand() *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "Inspect and edit the saved application draft",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the draft",
				Action: draftShow,
			},
			{
				Name:      "set",
				Usage:     "Set one or more fields",
				ArgsUsage: "FIELD=VALUE [FIELD=VALUE...]",
				Action:    draftSet,
			},
			{
				Name:      "step",
				Usage:     "Jump to a step (clamped to 1-3)",
				ArgsUsage: "N",
				Action:    draftStep,
			},
			{
				Name:   "next",
				Usage:  "Validate the current step and move to the next one",
				Action: draftNext,
			},
			{
				Name:    "previous",
				Aliases: []string{"prev"},
				Usage:   "Move back one step",
				Action:  draftPrevious,
			},
			{
				Name:   "reset",
				Usage:  "Discard the draft and start over",
				Action: draftReset,
			},
			{
				Name:   "fields",
				Usage:  "List the form fields by step",
				Action: draftFields,
			},
		},
	}
}

// draftView is the rendered form of a draft.
type draftView struct {
	service.State `yaml:",inline"`
	StepName      string `json:"stepName" yaml:"stepName"`
	Completion    int    `json:"completion" yaml:"completion"`
}

func newDraftView(s service.State) draftView {
	return draftView{
		State:      s,
		StepName:   domain.StepName(s.CurrentStep),
		Completion: s.FormData.Completion(),
	}
}

// Table lists the step, the completion bar and every answered field.
func (v draftView) Table() *output.Table {
	t := &output.Table{}
	t.SetHeaders("FIELD", "VALUE")
	t.AddRow("step", fmt.Sprintf("%d/%d (%s)", v.CurrentStep, domain.MaxStep, v.StepName))
	t.AddRow("completion", output.Bar(v.Completion, output.DefaultBarWidth))
	if v.Error != "" {
		t.AddRow("error", v.Error)
	}
	for _, f := range domain.Fields() {
		value := v.FormData.Text(f)
		if f == domain.FieldDependents && v.FormData.Dependents == 0 {
			value = ""
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		t.AddRow(string(f), oneLine(value))
	}
	return t
}

// oneLine collapses newlines and truncates long narratives for tables.
func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const limit = 60
	if r := []rune(s); len(r) > limit {
		return string(r[:limit-3]) + "..."
	}
	return s
}

func draftShow(c *cli.Context) error {
	return withRuntime(c, func(rt *Runtime) error {
		return render(c, newDraftView(rt.Wizard.Snapshot()))
	})
}

func draftSet(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one FIELD=VALUE is required")
	}
	patch := domain.Patch{}
	for _, arg := range c.Args().Slice() {
		p, err := domain.ParseAssignment(arg)
		if err != nil {
			return err
		}
		for f, v := range p {
			patch[f] = v
		}
	}

	return withRuntime(c, func(rt *Runtime) error {
		if err := rt.Wizard.UpdateFormData(patch); err != nil {
			return err
		}
		return render(c, newDraftView(rt.Wizard.Snapshot()))
	})
}

func draftStep(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one step number is required")
	}
	n, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid step %q", c.Args().First())
	}

	return withRuntime(c, func(rt *Runtime) error {
		rt.Wizard.SetCurrentStep(n)
		return render(c, newDraftView(rt.Wizard.Snapshot()))
	})
}

func draftNext(c *cli.Context) error {
	return withRuntime(c, func(rt *Runtime) error {
		if _, errs := rt.Wizard.NextStep(); len(errs) > 0 {
			if err := render(c, []domain.FieldError(errs)); err != nil {
				return err
			}
			return errs.Err()
		}
		return render(c, newDraftView(rt.Wizard.Snapshot()))
	})
}

func draftPrevious(c *cli.Context) error {
	return withRuntime(c, func(rt *Runtime) error {
		rt.Wizard.PreviousStep()
		return render(c, newDraftView(rt.Wizard.Snapshot()))
	})
}

func draftReset(c *cli.Context) error {
	return withRuntime(c, func(rt *Runtime) error {
		if err := waitReset(c.Context, rt.Wizard.ResetForm()); err != nil {
			return err
		}
		rt.Compact(c.Context)
		return render(c, newDraftView(rt.Wizard.Snapshot()))
	})
}

// waitReset blocks until done closes or resetWait elapses.
func waitReset(ctx context.Context, done <-chan struct{}) error {
	ctx, cancel := context.WithTimeout(ctx, resetWait)
	defer cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("reset did not settle: %w", ctx.Err())
	}
}

// fieldInfo describes one form field.
type fieldInfo struct {
	Field     string `json:"field" yaml:"field"`
	Step      int    `json:"step" yaml:"step"`
	Narrative bool   `json:"narrative" yaml:"narrative"`
}

func draftFields(c *cli.Context) error {
	var fields []fieldInfo
	for step := domain.MinStep; step <= domain.MaxStep; step++ {
		for _, f := range domain.StepFields(step) {
			fields = append(fields, fieldInfo{Field: string(f), Step: step, Narrative: f.Narrative()})
		}
	}
	return render(c, fields)
}
