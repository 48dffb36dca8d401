package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/aoyama-dev/sitemirror/internal/database"
	"github.com/aoyama-dev/sitemirror/internal/model"
)

// seedTrafficDB records one exchange in a fresh database and returns its
// directory and run ID.
func seedTrafficDB(t *testing.T, body string) (string, int64) {
	t.Helper()

	dbDir := t.TempDir()
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	defer db.Close()

	runID, err := db.BeginRun(context.Background(), "http://site.example/", "./out")
	if err != nil {
		t.Fatalf("BeginRun() returned error: %v", err)
	}
	res := &model.Resource{
		URL:         "http://site.example/page",
		StatusCode:  200,
		ContentType: "text/html",
		Body:        []byte(body),
	}
	if err := db.RecordExchange(context.Background(), runID, res); err != nil {
		t.Fatalf("RecordExchange() returned error: %v", err)
	}
	return dbDir, runID
}

func TestTrafficCmdDumpsBodyToCommandOut(t *testing.T) {
	t.Parallel()

	dbDir, runID := seedTrafficDB(t, "<html>replayed</html>")

	cmd := NewTrafficCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--db-dir", dbDir,
		"--run", strconv.FormatInt(runID, 10),
		"--url", "http://site.example/page",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if out.String() != "<html>replayed</html>" {
		t.Errorf("output = %q, want the stored body on the command writer", out.String())
	}
}

func TestTrafficCmdListsRuns(t *testing.T) {
	t.Parallel()

	dbDir, _ := seedTrafficDB(t, "x")

	cmd := NewTrafficCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--db-dir", dbDir})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if !strings.Contains(out.String(), "http://site.example/") {
		t.Errorf("run listing missing the seed:\n%s", out.String())
	}
}

func TestTrafficCmdURLRequiresRun(t *testing.T) {
	t.Parallel()

	dbDir, _ := seedTrafficDB(t, "x")

	cmd := NewTrafficCmd()
	cmd.SetOut(bytes.NewBuffer(nil))
	cmd.SetErr(bytes.NewBuffer(nil))
	cmd.SetArgs([]string{"--db-dir", dbDir, "--url", "http://site.example/page"})

	if err := cmd.Execute(); err == nil {
		t.Error("Execute() with --url but no --run returned nil error")
	}
}
