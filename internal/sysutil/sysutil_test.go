package sysutil

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogLevel(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" Debug ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Errorf("SetLogLevel(%q) left level %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty(); got != "" {
		t.Errorf("FirstNonEmpty() = %q, want empty", got)
	}
	if got := FirstNonEmpty("", "  ", "\t"); got != "" {
		t.Errorf("FirstNonEmpty(blanks) = %q, want empty", got)
	}
	if got := FirstNonEmpty("", " v1.4 ", "dev"); got != " v1.4 " {
		t.Errorf("FirstNonEmpty = %q, want %q", got, " v1.4 ")
	}
	if got := FirstNonEmpty("dev", "v2"); got != "dev" {
		t.Errorf("FirstNonEmpty = %q, want dev", got)
	}
}
