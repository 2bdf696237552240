package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/celements/wikibridge/xwiki/observation"
	"github.com/celements/wikibridge/xwiki/observation/remote"
)

func (cli *CLI) relayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Share document and wiki events between nodes",
	}
	cmd.AddCommand(cli.relayServeCommand(), cli.relayWatchCommand())
	return cmd
}

func (cli *CLI) relayServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket hub the nodes connect to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			path, _ := cmd.Flags().GetString("path")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := remote.NewHub(remote.WithHubLogger(cli.logger))
			mux := http.NewServeMux()
			mux.Handle(path, hub)
			server := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()
			cli.logger.Info("relay hub listening", "addr", listen, "path", path)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "relay hub listening on %s%s\n", listen, path)

			select {
			case err := <-errCh:
				_ = hub.Close()
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return &CLIError{Operation: "serve relay", Cause: "cannot listen on " + listen, Details: err.Error(), Underlying: err}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = hub.Close()
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("listen", ":8089", "Address to listen on")
	cmd.Flags().String("path", "/events", "HTTP path of the websocket endpoint")
	return cmd
}

// eventPrinter writes received remote events, one per line.
type eventPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	seen   int
	max    int
	cancel context.CancelFunc
}

func (p *eventPrinter) onEvent(event observation.Event, source, _ any) {
	rs, ok := source.(remote.RemoteSource)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "%s %v\n", rs.Node, event)
	p.seen++
	if p.max > 0 && p.seen >= p.max {
		p.cancel()
	}
}

func (cli *CLI) relayWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <url>",
		Short: "Join a relay hub and print the events of the other nodes",
		Long: `Watch connects the local store to a relay hub. Events received from other
nodes are printed and invalidate the local caches; local changes are sent to
the hub.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			node, _ := cmd.Flags().GetString("node")

			a, err := cli.app()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			client, err := remote.Dial(ctx, args[0], remote.WithClientLogger(cli.logger))
			if err != nil {
				return &CLIError{Operation: "join relay", Cause: "cannot connect to " + args[0], Details: err.Error(), Underlying: err,
					Suggestions: []string{"Start a hub with 'wikibridge relay serve'"}}
			}
			defer func() { _ = client.Close() }()

			printer := &eventPrinter{w: cmd.OutOrStdout(), max: count, cancel: cancel}
			if err := a.observation.AddListener(observation.NewListener("relay-watch", printer.onEvent, observation.AllEvent{})); err != nil {
				return err
			}
			relay := remote.NewRelay(a.observation, client, remote.WithNode(node), remote.WithRelayLogger(cli.logger))
			if err := relay.Start(ctx); err != nil {
				return err
			}
			cli.logger.Info("joined relay", "url", args[0], "node", relay.Node())

			<-relay.Done()
			return nil
		},
	}
	cmd.Flags().Int("count", 0, "Exit after this many events, 0 to run until interrupted")
	cmd.Flags().String("node", "", "Node id, random when empty")
	return cmd
}
