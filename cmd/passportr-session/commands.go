package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/passportr/passportr"
	"github.com/passportr/passportr/identity"
	"github.com/passportr/passportr/markers"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream session state changes as JSON lines until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()
			return runWatch(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

// runWatch registers the encoder before mounting so the provider's first
// notification is never missed.
func runWatch(ctx context.Context, a *app, out io.Writer) error {
	ctx = passportr.WithSurface(ctx, cliSurface)
	sc := a.engine.NewScope()

	var mu sync.Mutex
	enc := json.NewEncoder(out)
	stop := sc.View().Watch(func(st passportr.State) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(st)
	})
	defer stop()

	if err := sc.Mount(ctx); err != nil {
		return err
	}
	defer sc.Unmount()

	<-ctx.Done()
	return nil
}

func newSignInCmd(a *app) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "sign-in <user-id>",
		Short: "Issue an identity token, publish it and set the local markers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			id := identity.Identity{ID: args[0], Email: email, DisplayName: name}
			if _, err := a.provider.SignIn(ctx, id); err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			if err := markers.MarkLoggedIn(ctx, a.markers, email); err != nil {
				return fmt.Errorf("set markers: %w", err)
			}
			a.logger.Info("signed in", "user_id", id.ID, "client_id", a.cfg.ClientID)
			fmt.Fprintf(cmd.OutOrStdout(), "signed in %s\n", id.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email recorded in the token and markers")
	cmd.Flags().StringVar(&name, "name", "", "display name recorded in the token")
	return cmd
}

func newSignOutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sign-out",
		Short: "Sign out through a session scope and clear the local markers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			sc, ctx, err := a.mount(cmd.Context())
			if err != nil {
				return err
			}
			defer sc.Unmount()

			sc.View().SignOut(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

type statusReport struct {
	State    passportr.State   `json:"state"`
	Markers  map[string]string `json:"markers"`
	Degraded bool              `json:"provider_degraded"`
}

func newStatusCmd(a *app) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the resolved session state and the local markers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			report, err := runStatus(ctx, a)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait for the session to resolve")
	return cmd
}

func runStatus(ctx context.Context, a *app) (statusReport, error) {
	sc, ctx, err := a.mount(ctx)
	if err != nil {
		return statusReport{}, err
	}
	defer sc.Unmount()

	st, err := waitResolved(ctx, sc.View())
	if err != nil {
		return statusReport{}, err
	}

	report := statusReport{
		State:    st,
		Markers:  make(map[string]string, len(markers.Keys())),
		Degraded: a.engine.ProviderDegraded(),
	}
	for _, key := range markers.Keys() {
		v, ok, err := a.markers.Get(ctx, key)
		if err != nil {
			return statusReport{}, err
		}
		if ok {
			report.Markers[key] = v
		}
	}
	return report, nil
}

// waitResolved blocks until the view has applied its first notification.
func waitResolved(ctx context.Context, view passportr.View) (passportr.State, error) {
	resolved := make(chan passportr.State, 1)
	stop := view.Watch(func(st passportr.State) {
		select {
		case resolved <- st:
		default:
		}
	})
	defer stop()

	if st := view.State(); !st.Resolving {
		return st, nil
	}
	select {
	case st := <-resolved:
		return st, nil
	case <-ctx.Done():
		return passportr.State{}, errors.New("session did not resolve before the timeout")
	}
}
