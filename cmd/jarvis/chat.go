package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lin-Jiong-HDU/jarvis/internal/conversation"
	"github.com/Lin-Jiong-HDU/jarvis/internal/terminal"
	"github.com/spf13/cobra"
)

var chatNoRender bool

func getChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Chat with Jarvis",
		Long:  "Send one chat message. The reply is rendered as markdown unless --no-render is set.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runChat,
	}

	cmd.Flags().BoolVar(&chatNoRender, "no-render", false, "print the reply without markdown rendering")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reply := a.responder.Reply(ctx, strings.Join(args, " "))
	out := cmd.OutOrStdout()

	if chatNoRender {
		fmt.Fprintf(out, "%s: %s\n", reply.From, reply.Message)
		return nil
	}

	renderer, err := conversation.NewRenderer(80)
	if err != nil {
		a.logger.Debugf("markdown renderer unavailable: %v", err)
		fmt.Fprintf(out, "%s: %s\n", reply.From, reply.Message)
		return nil
	}

	fmt.Fprint(out, terminal.DefaultStyles().Title.Render(reply.From)+"\n")
	fmt.Fprint(out, renderer.Render(reply.Message))
	return nil
}
