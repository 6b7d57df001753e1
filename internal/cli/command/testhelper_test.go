package command

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"
)

// result is the captured outcome of one CLI invocation.
type result struct {
	stdout string
	stderr string
	err    error
}

// runApp runs the CLI with args as if typed after the program name.
func runApp(t *testing.T, args ...string) result {
	t.Helper()
	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"supportform"}, args...))
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

// mustRun runs the CLI and fails the test on error.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	r := runApp(t, args...)
	if r.err != nil {
		t.Fatalf("supportform %v: %v\nstderr: %s", args, r.err, r.stderr)
	}
	return r.stdout
}

// showDraft returns the draft stored under dataArgs.
func showDraft(t *testing.T, dataArgs ...string) draftView {
	t.Helper()
	out := mustRun(t, append(dataArgs, "-o", "json", "draft", "show")...)
	var v draftView
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode draft %q: %v", out, err)
	}
	return v
}

// writeConfig writes a YAML config file and returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supportform.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// validAnswers fills every field with an acceptable value.
func validAnswers() []string {
	return []string{
		"name=Fatima Ali",
		"nationalId=1234567890123",
		"dateOfBirth=1990-05-17",
		"gender=female",
		"address=12 Palm Street, Block 4",
		"city=Dubai",
		"state=Dubai",
		"country=ae",
		"phone=+971501234567",
		"email=fatima@example.com",
		"maritalStatus=married",
		"dependents=2",
		"employmentStatus=unemployed",
		"monthlyIncome=1500",
		"housingStatus=rented",
		"financialSituation=Savings are nearly exhausted after job loss.",
		"employmentCircumstances=Laid off in March, actively applying for roles.",
		"reasonForApplying=Need support to cover rent and school fees.",
	}
}
