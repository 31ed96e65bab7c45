package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/config"
	"github.com/aravindh-murugesan/waitsentry-go/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	configFile string

	// v holds flags, env vars and the config file; settings is the decoded result.
	v        = config.New()
	settings *config.Config
)

var rootCommand = &cobra.Command{
	Use:     "waitsentry",
	Aliases: []string{"waitsentry-go"},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Allow 'version' (and 'help') to run without a valid configuration
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		loaded, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		settings = loaded
		return nil
	},
	SilenceUsage: true,
	Short:        "Waitsentry: wait for cloud resources to reach a target state",
	Long: `Waitsentry issues create/delete calls against OpenStack Block Storage and
DynamoDB and waits, with bounded exponential backoff, until the affected
resource reaches the requested state.

Transient API failures (throttling, 5xx, network errors) are retried;
operations that were applied but never confirmed are reported separately
and can trigger a webhook alert.`,
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCommand.ExecuteContext(ctx)
}

func init() {
	rootCommand.AddGroup(&cobra.Group{ID: "openstack", Title: "OpenStack"})
	rootCommand.AddGroup(&cobra.Group{ID: "aws", Title: "AWS"})

	flags := rootCommand.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to a YAML config file")
	flags.String("cloud", "", "Name of the cloud profile as in clouds.yaml")
	flags.Duration("timeout", 0, "Global execution timeout (0 = run indefinitely)")
	flags.String("log-level", "info", "Logging level (debug, info, warn, error)")
	flags.Duration("max-wait", 0, "Maximum time to wait for a target state (default 20m)")
	flags.Duration("poll-cap", 0, "Maximum sleep between polls (default 30s)")
	flags.String("webhook-url", "", "Webhook URL for alerting")
	flags.String("webhook-username", "", "Webhook username for alerting")
	flags.String("webhook-password", "", "Webhook password for alerting")

	// Flags override env vars (WAITSENTRY_*), which override the config file
	_ = v.BindPFlag("cloud", flags.Lookup("cloud"))
	_ = v.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = v.BindPFlag("log-level", flags.Lookup("log-level"))
	_ = v.BindPFlag("waiter.max-wait", flags.Lookup("max-wait"))
	_ = v.BindPFlag("waiter.poll-interval-cap", flags.Lookup("poll-cap"))
	_ = v.BindPFlag("webhook.url", flags.Lookup("webhook-url"))
	_ = v.BindPFlag("webhook.username", flags.Lookup("webhook-username"))
	_ = v.BindPFlag("webhook.password", flags.Lookup("webhook-password"))
}

// newSession starts a workflow run with its own run id.
func newSession(workflowName string) (*workflow.Session, error) {
	logger := workflow.SetupLogger(settings.LogLevel, settings.Cloud)
	return workflow.NewSession(settings, logger, workflowName, nil)
}

// requireCloud enforces the cloud profile for OpenStack commands.
func requireCloud() error {
	if settings.Cloud == "" {
		return fmt.Errorf("required flag(s) \"cloud\" not set")
	}
	return nil
}

func banner(title string) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("Waitsentry - %s\n\n%s", title, time.Now().UTC().Format(time.RFC3339))))
}
