package support

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cucumber/godog"
	"gopkg.in/yaml.v3"
)

// RegisterCommonSteps registers the step definitions shared by all features.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a file "([^"]*)" containing:$`, testCtx.aFileContaining)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.SetEnv)
	sc.Step(`^I run "cnread ([^"]*)"$`, testCtx.iRun)
	sc.Step(`^I run cnread with arguments:$`, testCtx.iRunWithArguments)

	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should list:$`, testCtx.theOutputShouldList)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON field "([^"]*)" should be (\d+)$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should be valid YAML with "([^"]*)" set to "([^"]*)"$`,
		testCtx.theFileShouldBeYAMLWith)
	sc.Step(`^the logs should contain "([^"]*)"$`, testCtx.theLogsShouldContain)
}

func (testCtx *TestContext) aFileContaining(name string, content *godog.DocString) error {
	return os.WriteFile(testCtx.Path(name), []byte(content.Content), 0o600)
}

func (testCtx *TestContext) iRun(args string) error {
	parsed, err := splitArgs(args)
	if err != nil {
		return err
	}
	testCtx.Run(parsed)
	return nil
}

// iRunWithArguments takes one argument per table row so values may hold spaces.
func (testCtx *TestContext) iRunWithArguments(table *godog.Table) error {
	args := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if len(row.Cells) != 1 {
			return fmt.Errorf("expected one cell per row, got %d", len(row.Cells))
		}
		args = append(args, row.Cells[0].Value)
	}
	testCtx.Run(args)
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("%q failed: %w\nstderr:\n%s", testCtx.LastCommand, testCtx.LastError, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("%q succeeded, expected failure\noutput:\n%s", testCtx.LastCommand, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldMention(text string) error {
	if testCtx.LastError == nil {
		return errors.New("no error was returned")
	}
	if !strings.Contains(testCtx.LastError.Error(), text) {
		return fmt.Errorf("error %q does not mention %q", testCtx.LastError, text)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(text string) error {
	if !strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output does not contain %q:\n%s", text, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains %q:\n%s", text, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldList checks tab-separated output lines against a two-column
// table. The header row is skipped.
func (testCtx *TestContext) theOutputShouldList(table *godog.Table) error {
	lines := strings.Split(strings.TrimRight(testCtx.LastOutput, "\n"), "\n")
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) != 2 {
			return fmt.Errorf("row %d: expected two cells, got %d", i, len(row.Cells))
		}
		want := row.Cells[0].Value + "\t" + row.Cells[1].Value
		found := false
		for _, line := range lines {
			if strings.HasPrefix(line, want) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no output line starts with %q:\n%s", want, testCtx.LastOutput)
		}
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var v any
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &v); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\n%s", err, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theJSONFieldShouldBe(field string, want int) error {
	var doc map[string]any
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &doc); err != nil {
		return fmt.Errorf("output is not a JSON object: %w", err)
	}
	got, ok := doc[field].(float64)
	if !ok {
		return fmt.Errorf("field %q missing or not a number in %v", field, doc)
	}
	if int(got) != want {
		return fmt.Errorf("field %q is %v, want %d", field, got, want)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if _, err := os.Stat(testCtx.Path(name)); err != nil {
		return fmt.Errorf("expected file %s: %w", name, err)
	}
	return nil
}

// theFileShouldBeYAMLWith looks up a dotted key such as "output.format".
func (testCtx *TestContext) theFileShouldBeYAMLWith(name, key, want string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s is not valid YAML: %w", name, err)
	}

	var cur any = doc
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %q is not a mapping", name, part)
		}
		if cur, ok = m[part]; !ok {
			return fmt.Errorf("%s: key %q not found", name, key)
		}
	}
	if got := fmt.Sprint(cur); got != want {
		return fmt.Errorf("%s: %s is %q, want %q", name, key, got, want)
	}
	return nil
}

func (testCtx *TestContext) theLogsShouldContain(text string) error {
	if !strings.Contains(testCtx.LastStderr, text) {
		return fmt.Errorf("logs do not contain %q:\n%s", text, testCtx.LastStderr)
	}
	return nil
}

// splitArgs splits a command line on spaces, keeping single-quoted
// sections together.
func splitArgs(s string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range s {
		switch {
		case r == '\'':
			quoted = !quoted
			pending = true
		case r == ' ' && !quoted:
			if pending {
				args = append(args, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if pending {
		args = append(args, cur.String())
	}
	return args, nil
}
