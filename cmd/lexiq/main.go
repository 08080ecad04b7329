// Command lexiq checks document terminology against a glossary and keeps the
// analysis current while the document is edited.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/lexiq/internal/adapters/driven/ai"
	llmanalyzer "github.com/custodia-labs/lexiq/internal/adapters/driven/analyzer/llm"
	"github.com/custodia-labs/lexiq/internal/adapters/driven/config/file"
	"github.com/custodia-labs/lexiq/internal/adapters/driving/cli"
	"github.com/custodia-labs/lexiq/internal/core/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	prompts, err := file.NewPromptStore("", llmanalyzer.DefaultPrompts())
	if err != nil {
		return fmt.Errorf("opening prompts: %w", err)
	}

	cli.Configure(cli.Services{
		Settings: services.NewSettingsService(configStore, ai.NewConfigValidator()),
		Prompts:  prompts,
	})

	return cli.ExecuteContext(ctx)
}
