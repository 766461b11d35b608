// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("expected empty correlation ID, got %q", got)
	}

	ctx = ContextWithNewCorrelationID(ctx)
	if got := CorrelationIDFromContext(ctx); len(got) != 8 {
		t.Errorf("expected 8-char correlation ID, got %q", got)
	}
}

func TestRequestIDUnique(t *testing.T) {
	t.Parallel()

	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b {
		t.Errorf("request IDs should differ: %s", a)
	}
}

func TestCtxAddsIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "abcd1234")
	ctx = ContextWithRequestID(ctx, "req-1")

	Ctx(ctx).Info().Msg("hello")
	CtxComponent(ctx, "api").Info().Msg("again")

	out := buf.String()
	for _, want := range []string{`"correlation_id":"abcd1234"`, `"request_id":"req-1"`, `"component":"api"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
