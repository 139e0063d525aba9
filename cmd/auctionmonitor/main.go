package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"AuctionMonitor/internal/app"
	"AuctionMonitor/internal/domain"
	"AuctionMonitor/internal/infrastructure/storage"
	"AuctionMonitor/internal/ports"
)

func main() {
	root := &cobra.Command{
		Use:           "auctionmonitor",
		Short:         "Watches auction listings and notifies on matches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		runCmd(),
		onceCmd(),
		termsCmd(),
		listCmd("blacklist", "Hide auctions from matching and notification",
			func(ctx context.Context, s *storage.Store, e domain.ListEntry) (bool, error) { return s.AddBlacklist(ctx, e) },
			func(ctx context.Context, s *storage.Store, id string) (bool, error) { return s.RemoveBlacklist(ctx, id) },
			func(ctx context.Context, s *storage.Store) ([]domain.ListEntry, error) { return s.Blacklist(ctx) },
		),
		listCmd("watch", "Flag auctions of special interest",
			func(ctx context.Context, s *storage.Store, e domain.ListEntry) (bool, error) { return s.AddWatch(ctx, e) },
			func(ctx context.Context, s *storage.Store, id string) (bool, error) { return s.RemoveWatch(ctx, id) },
			func(ctx context.Context, s *storage.Store) ([]domain.ListEntry, error) { return s.Watchlist(ctx) },
		),
		cachedCmd(),
		testNotifyCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			return a.Run(ctx)
		},
	}
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single sync cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			status, err := a.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("fetched=%d new=%d urgent=%d flushed=%d\n",
				status.LastFetched, status.LastNew, status.LastUrgent, status.FlushedCount)
			return nil
		},
	}
}

func termsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Manage the active search terms",
	}

	var skipSync bool

	addCmd := &cobra.Command{
		Use:   "add <term>",
		Short: "Add a search term and sync",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			added, err := a.Store().AddSearchTerm(ctx, args[0])
			if err != nil {
				return err
			}
			if !added {
				fmt.Println("term already present")
				return nil
			}
			return syncAfterChange(ctx, a, skipSync)
		}),
	}
	addCmd.Flags().BoolVar(&skipSync, "no-sync", false, "skip the immediate sync cycle")

	removeCmd := &cobra.Command{
		Use:   "remove <term>",
		Short: "Remove a search term and sync",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			removed, err := a.Store().RemoveSearchTerm(ctx, args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Println("term not found")
				return nil
			}
			return syncAfterChange(ctx, a, skipSync)
		}),
	}
	removeCmd.Flags().BoolVar(&skipSync, "no-sync", false, "skip the immediate sync cycle")

	cmd.AddCommand(
		addCmd,
		removeCmd,
		&cobra.Command{
			Use:   "list",
			Short: "List search terms",
			Args:  cobra.NoArgs,
			RunE: withStore(func(ctx context.Context, s *storage.Store, args []string) error {
				terms, err := s.SearchTerms(ctx)
				if err != nil {
					return err
				}
				for _, term := range terms {
					fmt.Println(term)
				}
				return nil
			}),
		},
	)
	return cmd
}

func listCmd(
	name, short string,
	add func(context.Context, *storage.Store, domain.ListEntry) (bool, error),
	remove func(context.Context, *storage.Store, string) (bool, error),
	list func(context.Context, *storage.Store) ([]domain.ListEntry, error),
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
	}

	var title, url string
	addCmd := &cobra.Command{
		Use:   "add <auction-id>",
		Short: "Add an auction id to the " + name,
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(ctx context.Context, s *storage.Store, args []string) error {
			added, err := add(ctx, s, domain.ListEntry{AuctionID: args[0], Title: title, URL: url})
			if err != nil {
				return err
			}
			if !added {
				fmt.Println("already present")
			}
			return nil
		}),
	}
	addCmd.Flags().StringVar(&title, "title", "", "optional auction title")
	addCmd.Flags().StringVar(&url, "url", "", "optional auction url")

	cmd.AddCommand(
		addCmd,
		&cobra.Command{
			Use:   "remove <auction-id>",
			Short: "Remove an auction id from the " + name,
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(ctx context.Context, s *storage.Store, args []string) error {
				removed, err := remove(ctx, s, args[0])
				if err != nil {
					return err
				}
				if !removed {
					fmt.Println("not found")
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List " + name + " entries",
			Args:  cobra.NoArgs,
			RunE: withStore(func(ctx context.Context, s *storage.Store, args []string) error {
				entries, err := list(ctx, s)
				if err != nil {
					return err
				}
				for _, e := range entries {
					line := e.AuctionID
					if e.Title != "" {
						line += "\t" + e.Title
					}
					fmt.Println(line)
				}
				return nil
			}),
		},
	)
	return cmd
}

func cachedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cached",
		Short: "Show the last synced result set from the cache",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			auctions, err := a.CachedAuctions(ctx)
			if err != nil {
				if errors.Is(err, ports.ErrCacheMiss) {
					fmt.Println("cache is empty; run a sync first")
					return nil
				}
				return err
			}
			for _, auction := range auctions {
				line := auction.ID + "\t" + auction.Title
				if auction.CurrentBid != "" {
					line += "\t" + auction.CurrentBid
				}
				if auction.Watched {
					line += "\t★"
				}
				fmt.Println(line)
			}
			return nil
		}),
	}
}

func testNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the configured channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if err := a.TestNotify(ctx); err != nil {
				return fmt.Errorf("notification channel check failed: %w", err)
			}
			fmt.Println("test notification sent")
			return nil
		},
	}
}

// withStore builds the app, runs fn against its store, and closes it.
func withStore(fn func(context.Context, *storage.Store, []string) error) func(*cobra.Command, []string) error {
	return withApp(func(ctx context.Context, a *app.App, args []string) error {
		return fn(ctx, a.Store(), args)
	})
}

func withApp(fn func(context.Context, *app.App, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := app.New()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext()
		defer cancel()
		return fn(ctx, a, args)
	}
}

// syncAfterChange runs one cycle so a term change is reflected right away
// instead of on the daemon's next scheduled sync.
func syncAfterChange(ctx context.Context, a *app.App, skip bool) error {
	if skip {
		return nil
	}
	status, err := a.RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("synced: fetched=%d new=%d urgent=%d flushed=%d\n",
		status.LastFetched, status.LastNew, status.LastUrgent, status.FlushedCount)
	return nil
}
