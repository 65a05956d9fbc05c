package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/bionicotaku/lingo-utils-authsession"
	"github.com/bionicotaku/lingo-utils-authsession/store/pgstore"
	"github.com/bionicotaku/lingo-utils-authsession/store/redisstore"
	"github.com/bionicotaku/lingo-utils-authsession/store/sqlitestore"
)

// openStore builds the session store named by spec. The returned close
// function is never nil.
func openStore(ctx context.Context, spec string) (authsession.Store, func() error, error) {
	noop := func() error { return nil }
	spec = strings.TrimSpace(spec)

	switch {
	case spec == "" || spec == "memory":
		return authsession.NewMemoryStore(), noop, nil
	case strings.HasPrefix(spec, "sqlite:"):
		s, err := sqlitestore.Open(strings.TrimPrefix(spec, "sqlite:"))
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case strings.HasPrefix(spec, "redis://"), strings.HasPrefix(spec, "rediss://"):
		s, err := redisstore.OpenURL(ctx, spec)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case strings.HasPrefix(spec, "postgres://"), strings.HasPrefix(spec, "postgresql://"):
		s, err := pgstore.Open(ctx, spec)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	}
	return nil, noop, fmt.Errorf("unsupported store %q", spec)
}
