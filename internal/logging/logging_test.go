package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	if err := Setup(&buf, "warn"); err != nil {
		t.Fatal(err)
	}
	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") || !strings.Contains(out, "k=v") {
		t.Errorf("output %q", out)
	}

	if err := Setup(&buf, ""); err != nil || zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("empty level: %v, %v", err, zerolog.GlobalLevel())
	}
	if err := Setup(&buf, "loud"); err == nil {
		t.Error("unknown level accepted")
	}
}
