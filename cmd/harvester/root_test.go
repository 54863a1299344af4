package main

import (
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	if cmd.Use != "harvester" {
		t.Fatalf("expected use 'harvester', got %q", cmd.Use)
	}

	flag := cmd.PersistentFlags().Lookup(envFileFlag)
	if flag == nil {
		t.Fatal("expected env-file flag")
	}
	if flag.DefValue != "" {
		t.Errorf("expected empty default, got %q", flag.DefValue)
	}

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"run", "watch"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestSubcommandsHaveFullFlag(t *testing.T) {
	t.Parallel()

	for _, c := range []struct {
		name string
		fn   func() bool
	}{
		{"run", func() bool { return NewRunCmd().Flags().Lookup("full") != nil }},
		{"watch", func() bool { return NewWatchCmd().Flags().Lookup("full") != nil }},
	} {
		if !c.fn() {
			t.Errorf("%s: expected --full flag", c.name)
		}
	}
}

func TestRunRejectsArgs(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"run", "extra"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unexpected positional argument")
	}
}
