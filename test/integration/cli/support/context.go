package support

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/cnread/cmd/cnread/cmd"
)

// TestContext holds the state for one scenario.
type TestContext struct {
	// Command execution state
	LastCommand string
	LastOutput  string
	LastStderr  string
	LastError   error

	// Test environment
	WorkingDir string
	TempDir    string

	envRestore map[string]*string
}

// NewTestContext creates a scenario context rooted in a fresh temp directory.
// The process working directory moves there until Cleanup.
func NewTestContext() (*TestContext, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "cnread-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to enter temp directory: %w", err)
	}

	ctx := &TestContext{
		WorkingDir: workingDir,
		TempDir:    tempDir,
		envRestore: make(map[string]*string),
	}
	// Keep user config files out of the search path.
	for _, name := range []string{"HOME", "XDG_CONFIG_HOME"} {
		if err := ctx.SetEnv(name, tempDir); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

// SetEnv sets an environment variable for the rest of the scenario.
func (testCtx *TestContext) SetEnv(name, value string) error {
	if _, saved := testCtx.envRestore[name]; !saved {
		if old, ok := os.LookupEnv(name); ok {
			testCtx.envRestore[name] = &old
		} else {
			testCtx.envRestore[name] = nil
		}
	}
	return os.Setenv(name, value)
}

// Run executes the CLI in-process with args.
func (testCtx *TestContext) Run(args []string) {
	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	testCtx.LastCommand = "cnread " + strings.Join(args, " ")
	testCtx.LastError = root.Execute()
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
}

// Path resolves name inside the scenario directory.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// Cleanup restores the working directory and environment and removes the
// scenario directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if err := os.Chdir(testCtx.WorkingDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore working directory: %w", err))
	}
	for name, old := range testCtx.envRestore {
		var err error
		if old == nil {
			err = os.Unsetenv(name)
		} else {
			err = os.Setenv(name, *old)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to restore %s: %w", name, err))
		}
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
