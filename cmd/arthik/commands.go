package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/arthik-khobor/internal/api"
	"github.com/Adda-Baaj/arthik-khobor/internal/service"
	"github.com/Adda-Baaj/arthik-khobor/internal/store"
	"github.com/Adda-Baaj/arthik-khobor/pkg/providers"
)

// withApp wires the app for one command run and tears it down afterwards.
func withApp(cmd *cobra.Command, configFile string, run func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configFile)
	if err != nil {
		return err
	}
	runErr := run(ctx, a)
	if err := a.close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func newServeCmd(configFile *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configFile, func(ctx context.Context, a *app) error {
				if addr == "" {
					addr = a.cfg.ServerAddr
				}
				srv := api.NewServer(a.svc, a.log, a.cfg.CORSOrigins, version)
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default SERVER_ADDR)")
	return cmd
}

func newFetchCmd(configFile *string) *cobra.Command {
	var req service.FetchRequest
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch news from a provider and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configFile, func(ctx context.Context, a *app) error {
				res, err := a.svc.FetchNews(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVarP(&req.ProviderID, "provider", "p", providers.ProviderDappier, "provider id (dappier, mcp, rss, sitemap)")
	cmd.Flags().IntVarP(&req.Limit, "limit", "n", 0, "number of items (default DEFAULT_NEWS_LIMIT)")
	cmd.Flags().StringVarP(&req.Query, "query", "q", "", "search query")
	cmd.Flags().BoolVar(&req.Publish, "publish", false, "publish items to the configured publishers")
	cmd.Flags().BoolVar(&req.Enrich, "enrich", false, "fill placeholder summaries from article pages")
	return cmd
}

func newStatusCmd(configFile *string) *cobra.Command {
	var providerID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show provider configuration and upstream health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configFile, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				if providerID != "" {
					statuses, err := a.svc.Status(ctx, providerID)
					if err != nil {
						return err
					}
					return printJSON(out, statuses)
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PROVIDER\tNAME\tCONFIGURED\tSETTINGS\tLAST UPDATED")
				for _, ov := range a.svc.Overview() {
					fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", ov.ID, ov.Name, ov.Configured, ov.Source, ov.LastUpdated)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&providerID, "provider", "p", "", "check upstream health of one provider")
	return cmd
}

func newConfigureCmd(configFile *string) *cobra.Command {
	var (
		providerID string
		settings   store.Settings
		reset      bool
	)
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store provider credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *configFile, func(_ context.Context, a *app) error {
				out := cmd.OutOrStdout()
				if reset {
					if err := a.svc.ResetSettings(providerID); err != nil {
						return err
					}
					fmt.Fprintf(out, "%s settings removed\n", providerID)
					return nil
				}

				saved, err := a.svc.SaveSettings(providerID, settings)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s settings saved: %s (key %s)\n", providerID, saved.ServerURL, service.MaskKey(saved.APIKey))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&providerID, "provider", "p", providers.ProviderDappier, "provider id")
	cmd.Flags().StringVar(&settings.ServerURL, "server-url", "", "provider endpoint url")
	cmd.Flags().StringVar(&settings.APIKey, "api-key", "", "provider api key")
	cmd.Flags().BoolVar(&reset, "reset", false, "remove stored settings")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
