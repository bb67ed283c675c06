package log

import (
	"strings"
	"testing"
)

func TestWithComponent(t *testing.T) {
	logger := WithComponent("composer")

	// The child logger must carry the component field; we can't easily
	// intercept the global writer after init, so assert via the logger's
	// update hook output instead.
	var sb strings.Builder
	l := logger.Output(&sb)
	l.Info().Msg("hello")

	out := sb.String()
	if !strings.Contains(out, `"component":"composer"`) {
		t.Fatalf("expected component field, got %s", out)
	}
	if !strings.Contains(out, `"service":"multirec"`) {
		t.Fatalf("expected service field, got %s", out)
	}
}

func TestBaseIsConfiguredOnce(t *testing.T) {
	a := Base()
	b := Base()

	var sa, sbuf strings.Builder
	la := a.Output(&sa)
	la.Info().Msg("x")
	lb := b.Output(&sbuf)
	lb.Info().Msg("x")

	if !strings.Contains(sa.String(), `"service"`) || !strings.Contains(sbuf.String(), `"service"`) {
		t.Fatal("both loggers should derive from the configured base")
	}
}
