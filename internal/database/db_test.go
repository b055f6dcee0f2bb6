package database

import (
	"strings"
	"testing"
)

func TestStatementsSplitsEmbeddedSchema(t *testing.T) {
	stmts := Statements(schema)
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3", len(stmts))
	}
	for _, want := range []string{"users", "refresh_tokens", "documents"} {
		found := false
		for _, s := range stmts {
			if strings.Contains(s, "CREATE TABLE IF NOT EXISTS "+want+" (") {
				found = true
			}
		}
		if !found {
			t.Fatalf("no CREATE TABLE for %s", want)
		}
	}
}

func TestStatementsDropsComments(t *testing.T) {
	got := Statements("-- only a comment\n;\nSELECT 1;\n  ")
	if len(got) != 1 || got[0] != "SELECT 1" {
		t.Fatalf("got %q", got)
	}
}
