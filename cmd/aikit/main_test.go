package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/internal/config"
	"github.com/go-kratos/aikit/internal/fake"
	"github.com/go-kratos/aikit/sola"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, model aikit.ModelProvider) *app {
	t.Helper()
	client, err := sola.NewClient(sola.Config{})
	require.NoError(t, err)
	engine, err := aikit.NewEngine(sola.Builders(), aikit.WithModel(model))
	require.NoError(t, err)
	return &app{
		cfg:     config.Default(),
		logger:  zerolog.Nop(),
		engine:  engine,
		context: sola.Context{AuthToken: "token", Client: client},
	}
}

func TestSessionRun(t *testing.T) {
	for _, streaming := range []bool{false, true} {
		t.Run(map[bool]string{false: "respond", true: "stream"}[streaming], func(t *testing.T) {
			model := fake.NewModel("test", fake.Script(fake.Text("hi there"), fake.Text("bye")))
			var out bytes.Buffer
			s := &session{app: newTestApp(t, model), groups: []string{}, stream: streaming, out: &out}

			err := s.run(context.Background(), strings.NewReader("hello\n\n  \ngoodbye\nexit\nignored\n"))
			require.NoError(t, err)
			assert.Equal(t, 2, model.Calls())
			assert.Contains(t, out.String(), "hi there\n")
			assert.Contains(t, out.String(), "bye\n")
			require.Len(t, s.history, 4)
			assert.Equal(t, "hello", s.history[0].Text())
			assert.Equal(t, "hi there", s.history[1].Text())

			second := model.Requests()[1]
			assert.Empty(t, second.Tools)
			var texts []string
			for _, m := range second.Messages {
				texts = append(texts, m.Text())
			}
			assert.Contains(t, texts, "hello")
			assert.Contains(t, texts, "hi there")
		})
	}
}

func TestNonEmpty(t *testing.T) {
	assert.Equal(t, []string{"token", "lulo"}, nonEmpty([]string{" token", "", "lulo ", " "}))
	assert.Empty(t, nonEmpty(nil))
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aikit.yaml")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "init", "--config", path})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath = ""
	})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "provider:")
	assert.Contains(t, string(b), "data_url:")
}
