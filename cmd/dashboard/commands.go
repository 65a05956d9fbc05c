package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bionicotaku/lingo-utils-authsession"
	"github.com/bionicotaku/lingo-utils-authsession/dashboard"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// session bundles an Authenticator with the store it owns.
type session struct {
	auth  *authsession.Authenticator
	close func() error
}

func openSession(ctx context.Context, g *globalFlags, opts ...authsession.Option) (*session, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	store, closeStore, err := openStore(ctx, g.store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	base := []authsession.Option{
		authsession.WithStore(store),
		authsession.WithLogger(slog.Default()),
	}
	auth, err := authsession.New(cfg, append(base, opts...)...)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	return &session{auth: auth, close: closeStore}, nil
}

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		addr          string
		statsInterval time.Duration
		portals       map[string]string
		secureCookies bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if os.Getenv(gin.EnvGinMode) == "" {
				gin.SetMode(gin.ReleaseMode)
			}

			reg := prometheus.NewRegistry()
			metrics, err := authsession.NewMetrics(reg)
			if err != nil {
				return fmt.Errorf("register metrics: %w", err)
			}
			sess, err := openSession(ctx, g, authsession.WithMetrics(metrics))
			if err != nil {
				return err
			}
			defer sess.close()

			srv := dashboard.New(sess.auth, dashboard.Options{
				Portals:        mergePortals(dashboard.DefaultPortals(), portals),
				StatsInterval:  statsInterval,
				Logger:         slog.Default(),
				MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
				SecureCookies:  secureCookies,
			})

			if _, err := sess.auth.Restore(ctx); err != nil {
				slog.Info("no stored session", "code", string(authsession.CodeOf(err)))
			} else {
				srv.StartStats()
			}
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().DurationVar(&statsInterval, "stats-interval", 30*time.Second, "Portal stats refresh interval")
	cmd.Flags().StringToStringVar(&portals, "portal", nil, "Portal URL override as name=url (repeatable)")
	cmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "Mark cookies Secure when TLS terminates at a proxy")
	return cmd
}

func mergePortals(base []authsession.Portal, overrides map[string]string) []authsession.Portal {
	out := make([]authsession.Portal, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(base))
	for _, p := range base {
		if u, ok := overrides[p.Name]; ok {
			p.URL = u
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	for name, u := range overrides {
		if !seen[name] {
			out = append(out, authsession.Portal{Name: name, URL: u})
		}
	}
	return out
}

func loginURLCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "login-url",
		Short: "Print a fresh authorization URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer sess.close()

			target, err := sess.auth.BeginLogin()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}
}

func callbackCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "callback <fragment>",
		Short: "Complete a login from the redirect fragment or URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer sess.close()

			fragment, err := authsession.ParseFragment(args[0])
			if err != nil {
				return err
			}
			if _, err := sess.auth.CompleteLogin(cmd.Context(), fragment); err != nil {
				return err
			}
			return printJSON(cmd, sess.auth.View())
		},
	}
}

func statusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer sess.close()

			restored, err := sess.auth.Restore(cmd.Context())
			if err != nil && !authsession.IsUnauthenticated(err) {
				return err
			}
			out := struct {
				authsession.View
				ExpiresAt string `json:"expiresAt,omitempty"`
				Reason    string `json:"reason,omitempty"`
			}{View: sess.auth.View()}
			if restored != nil {
				out.ExpiresAt = restored.ExpiresAt.Format(time.RFC3339)
			} else {
				out.Reason = string(authsession.CodeOf(err))
			}
			return printJSON(cmd, out)
		},
	}
}

func logoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session and print the provider logout URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer sess.close()

			logoutURL, err := sess.auth.Logout(cmd.Context())
			if logoutURL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), logoutURL)
			}
			return err
		},
	}
}

func devTokenCmd(g *globalFlags) *cobra.Command {
	var (
		name     string
		email    string
		admin    bool
		ttl      time.Duration
		secret   string
		complete bool
	)
	cmd := &cobra.Command{
		Use:   "dev-token",
		Short: "Mint a development identity token",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer sess.close()

			cfg := sess.auth.Config()
			dev := authsession.DefaultDevIdentity(cfg.ClientID)
			if name != "" {
				dev.Name = name
			}
			if email != "" {
				dev.Email = email
			}
			dev.Admin = admin
			dev.TTL = ttl

			token, err := authsession.MintDevToken(dev.ToIdentity(time.Now()), []byte(secret))
			if err != nil {
				return err
			}
			if !complete {
				fmt.Fprintf(cmd.OutOrStdout(), "%s#id_token=%s\n", cfg.RedirectURI, token)
				return nil
			}
			if _, err := sess.auth.CompleteLogin(cmd.Context(), map[string][]string{"id_token": {token}}); err != nil {
				return err
			}
			return printJSON(cmd, sess.auth.View())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name claim")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().BoolVar(&admin, "admin", false, "Set the admin claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "dev-secret", "HS256 signing secret")
	cmd.Flags().BoolVar(&complete, "complete", false, "Store the token as the current session")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
