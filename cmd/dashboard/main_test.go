package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bionicotaku/lingo-utils-authsession"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nAUTHSESSION_TEST_A=alpha\nexport AUTHSESSION_TEST_B=\"beta\"\nbroken line\nAUTHSESSION_TEST_C=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("AUTHSESSION_TEST_C", "from-env")
	t.Setenv("AUTHSESSION_TEST_A", "")
	os.Unsetenv("AUTHSESSION_TEST_A")
	t.Setenv("AUTHSESSION_TEST_B", "")
	os.Unsetenv("AUTHSESSION_TEST_B")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}
	if got := os.Getenv("AUTHSESSION_TEST_A"); got != "alpha" {
		t.Fatalf("A = %q", got)
	}
	if got := os.Getenv("AUTHSESSION_TEST_B"); got != "beta" {
		t.Fatalf("B = %q", got)
	}
	if got := os.Getenv("AUTHSESSION_TEST_C"); got != "from-env" {
		t.Fatalf("existing variables must win, got %q", got)
	}

	if err := loadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	store, closeFn, err := openStore(ctx, "memory")
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, ok := store.(*authsession.MemoryStore); !ok {
		t.Fatalf("expected MemoryStore, got %T", store)
	}
	_ = closeFn()

	store, closeFn, err = openStore(ctx, "sqlite:"+filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	if err := store.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("sqlite set: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("sqlite close: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	store, closeFn, err = openStore(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}
	if err := store.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("redis set: %v", err)
	}
	_ = closeFn()

	if _, closeFn, err := openStore(ctx, "etcd://localhost"); err == nil || closeFn == nil {
		t.Fatalf("expected unsupported store error, got %v", err)
	}
}

func TestMergePortals(t *testing.T) {
	merged := mergePortals([]authsession.Portal{
		{Name: "notify", URL: "https://a"},
		{Name: "admin", URL: "https://b", AdminOnly: true},
	}, map[string]string{"admin": "https://c", "extra": "https://d"})

	if len(merged) != 3 {
		t.Fatalf("unexpected portals: %+v", merged)
	}
	if merged[1].URL != "https://c" || !merged[1].AdminOnly {
		t.Fatalf("override must keep admin flag: %+v", merged[1])
	}
	if merged[2].Name != "extra" || merged[2].AdminOnly {
		t.Fatalf("unexpected extra portal: %+v", merged[2])
	}
}

func TestDevTokenAndStatusWithSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AUTHSESSION_CLIENT_ID", "4839f7dd-535e-4b41-acd1-582129be660a")
	t.Setenv("AUTHSESSION_TENANT", "sliderexid")
	t.Setenv("AUTHSESSION_USER_FLOW", "SliderMainFlow")
	t.Setenv("AUTHSESSION_REDIRECT_URI", "https://dashboard.slider.test/callback")

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		cmd := rootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(append(args,
			"--store", "sqlite:"+filepath.Join(dir, "session.db"),
			"--env", filepath.Join(dir, "none.env"),
			"--log-level", "error",
		))
		if err := cmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	out := run("dev-token", "--complete", "--name", "Ana María", "--email", "ana@slider.la")
	if !strings.Contains(out, `"initials": "AM"`) || !strings.Contains(out, `"isAdmin": true`) {
		t.Fatalf("unexpected dev-token output: %s", out)
	}

	out = run("status")
	if !strings.Contains(out, `"sessionValid": true`) || !strings.Contains(out, `"expiresAt"`) {
		t.Fatalf("unexpected status output: %s", out)
	}

	out = run("logout")
	if !strings.Contains(out, "post_logout_redirect_uri=https%3A%2F%2Fdashboard.slider.test") {
		t.Fatalf("unexpected logout output: %s", out)
	}

	out = run("status")
	if !strings.Contains(out, `"sessionValid": false`) || !strings.Contains(out, `"reason": "missing_data"`) {
		t.Fatalf("unexpected status after logout: %s", out)
	}
}

func TestServeDefaultsToLoopback(t *testing.T) {
	flag := serveCmd(&globalFlags{}).Flags().Lookup("addr")
	if flag == nil || flag.DefValue != "127.0.0.1:8080" {
		t.Fatalf("serve must listen on loopback by default, got %+v", flag)
	}
}
