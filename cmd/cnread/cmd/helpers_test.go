package cmd

import (
	"bytes"
	"context"
	"image"
	"testing"

	"github.com/MeKo-Tech/cnread/internal/config"
	"github.com/MeKo-Tech/cnread/internal/detection"
	"github.com/MeKo-Tech/cnread/internal/pipeline"
	"github.com/MeKo-Tech/cnread/internal/recognizer"
	"github.com/MeKo-Tech/cnread/internal/testutil"
	"github.com/spf13/viper"
)

// textRecognizer reads the same text from every image.
type textRecognizer string

func (r textRecognizer) Recognize(context.Context, image.Image) ([]recognizer.Candidate, error) {
	if r == "" {
		return nil, nil
	}
	return []recognizer.Candidate{{Text: string(r), Confidence: 0.9}}, nil
}

func newTestApp(text string) *app {
	return &app{
		v: viper.New(),
		newRecognizers: func(*config.Config) ([]pipeline.Recognizer, error) {
			return []pipeline.Recognizer{textRecognizer(text)}, nil
		},
	}
}

// execute runs a fresh command tree in an isolated environment.
func execute(t *testing.T, a *app, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := newRootCommand(a)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// writePlateScene writes one scene with a CN sidecar into dir.
func writePlateScene(t *testing.T, dir, name string) string {
	t.Helper()
	cfg := testutil.DefaultSceneConfig()
	return testutil.WriteScene(t, dir, name, cfg, []detection.Box{testutil.PlateBox(cfg, 0.95)}, nil)
}
