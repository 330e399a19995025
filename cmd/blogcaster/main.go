package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/blogcaster/backend/internal/client"
)

const defaultServer = "http://localhost:8000"

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.server, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "blogcaster",
		Short:         "Turn blog posts into narrated audio clips",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("BLOGCASTER_SERVER")
	if server == "" {
		server = defaultServer
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", server, "Blogcaster backend URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "Request timeout")

	cmd.AddCommand(
		newConvertCmd(opts),
		newListCmd(opts),
		newFetchCmd(opts),
		newSynthCmd(),
	)
	return cmd
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
