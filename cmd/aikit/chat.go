package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/sola"
	"github.com/spf13/cobra"
)

var (
	chatStream      bool
	chatGroups      []string
	chatNoOrchestra bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Chat with the model",
	Long: `Send a single prompt when one is given, otherwise start an interactive
session reading prompts from standard input until EOF or "exit".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if chatNoOrchestra {
			cfg.Engine.Orchestrate = false
		}
		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		var groups []string
		if cmd.Flags().Changed("groups") {
			groups = nonEmpty(chatGroups)
		}
		s := &session{app: a, groups: groups, stream: chatStream, out: cmd.OutOrStdout()}
		if len(args) == 1 {
			return s.send(ctx, args[0])
		}
		return s.run(ctx, cmd.InOrStdin())
	},
}

func init() {
	chatCmd.Flags().BoolVarP(&chatStream, "stream", "s", false, "Stream the answer as it is generated")
	chatCmd.Flags().StringSliceVarP(&chatGroups, "groups", "g", nil, "Capability groups to expose, skipping orchestration")
	chatCmd.Flags().BoolVar(&chatNoOrchestra, "no-orchestrate", false, "Expose every capability group without orchestration")
}

// session keeps the conversation history of an interactive chat.
type session struct {
	app     *app
	groups  []string
	stream  bool
	out     io.Writer
	history []*aikit.Message
}

func (s *session) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "exit", "quit":
			return nil
		default:
			if err := s.send(ctx, line); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.app.logger.Error().Err(err).Msg("turn failed")
			}
		}
		fmt.Fprint(s.out, "> ")
	}
	return scanner.Err()
}

func (s *session) send(ctx context.Context, prompt string) error {
	req := &aikit.Request[sola.Context]{
		Prompt:  prompt,
		History: s.history,
		Context: s.app.context,
		Groups:  s.groups,
	}
	var text string
	if s.stream {
		chunks, err := s.app.engine.Stream(ctx, req)
		if err != nil {
			return err
		}
		var buf strings.Builder
		for chunk, err := range chunks {
			if err != nil {
				fmt.Fprintln(s.out)
				return err
			}
			buf.WriteString(chunk)
			fmt.Fprint(s.out, chunk)
		}
		fmt.Fprintln(s.out)
		text = buf.String()
	} else {
		gen, err := s.app.engine.Respond(ctx, req)
		if err != nil {
			return err
		}
		s.app.logger.Debug().
			Str("id", gen.ID).
			Strs("capabilities", gen.Capabilities).
			Int("round_trips", gen.RoundTrips).
			Msg("turn completed")
		fmt.Fprintln(s.out, gen.Text)
		text = gen.Text
	}
	s.history = append(s.history, aikit.UserMessage(prompt), aikit.AssistantMessage(text))
	return nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
