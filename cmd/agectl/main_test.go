package main

import (
	"context"
	"strings"
	"testing"
)

func TestCommandTree(t *testing.T) {
	cmd := command()
	want := []string{"state", "click", "move", "reset", "themes", "theme", "board", "watch"}
	if len(cmd.Commands) != len(want) {
		t.Fatalf("expected %d subcommands, got %d", len(want), len(cmd.Commands))
	}
	for i, name := range want {
		if cmd.Commands[i].Name != name {
			t.Fatalf("subcommand %d: want %q, got %q", i, name, cmd.Commands[i].Name)
		}
	}
}

func TestArgumentValidation(t *testing.T) {
	cases := [][]string{
		{"agectl", "click"},
		{"agectl", "move", "e2"},
		{"agectl", "theme"},
	}
	for _, args := range cases {
		err := command().Run(context.Background(), args)
		if err == nil || !strings.HasPrefix(err.Error(), "usage:") {
			t.Fatalf("%v: expected a usage error, got %v", args, err)
		}
	}
}
