// Command chat runs a console conversation with the assistant for local
// development.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"sofia/internal/app"
	"sofia/internal/config"
	"sofia/internal/logger"
	"sofia/internal/records"
	"sofia/internal/services"
)

func main() {
	user := pflag.StringP("user", "u", "console", "user id to chat as")
	persist := pflag.Bool("persist", false, "use the configured storage backend instead of memory")
	offline := pflag.Bool("offline", false, "ignore configured AI providers and use local replies")
	verbose := pflag.BoolP("verbose", "v", false, "show service logs")
	pflag.Parse()

	if *verbose {
		logger.Init("development")
	} else {
		logger.Init("test")
	}
	defer logger.Sync()

	if err := run(*user, *persist, *offline, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(userID string, persist, offline bool, in io.Reader, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if offline {
		cfg.AIProvider = "none"
	}

	var opts app.Options
	if !persist {
		opts.Backend = records.NewMemory()
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(out, "SofIA (%s mode). Escribe /salir para terminar, /reset para borrar la conversación.\n", a.Assistant.Status().Mode)
	return converse(ctx, a.Assistant, userID, in, out)
}

// converse reads one message per line until EOF or /salir.
func converse(ctx context.Context, assistant services.AssistantServicer, userID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/salir", "/exit":
			return nil
		case "/reset":
			if err := assistant.ClearConversation(ctx, userID); err != nil {
				return err
			}
			fmt.Fprintln(out, "(conversación borrada)")
			continue
		}

		reply := assistant.HandleMessage(ctx, services.InboundMessage{
			UserID:   userID,
			Text:     line,
			Platform: "console",
		})
		fmt.Fprintf(out, "SofIA: %s\n", reply)
	}
}
