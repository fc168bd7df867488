package orchestrator

import (
	"context"
	"testing"

	"github.com/local/hackeval/internal/docloader"
)

func TestDeriveTeamNameStripsExtension(t *testing.T) {
	if got := deriveTeamName("/tmp/decks/Team Rocket.pdf"); got != "Team Rocket" {
		t.Fatalf("got %q", got)
	}
}

func TestProcessFileRecordsErrorForUnsupportedExtension(t *testing.T) {
	cfg := &Config{DocLoader: &docloader.Config{}}
	result := cfg.processFile(context.Background(), "/tmp/decks/notes.txt")
	if result.EvaluationError == "" {
		t.Fatal("expected evaluation_error for unsupported extension")
	}
	if result.TeamName != "notes" {
		t.Fatalf("team name = %q", result.TeamName)
	}
}

func TestRunFilesReturnsErrorOnEmptyFileList(t *testing.T) {
	_, err := RunFiles(context.Background(), Config{}, nil)
	if err != ErrNoFilesMatched {
		t.Fatalf("err = %v, want ErrNoFilesMatched", err)
	}
}
