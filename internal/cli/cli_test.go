package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/ai-event-scanner/backend/internal/application/services"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
)

type fakeBackend struct {
	discovered []services.DiscoverRequest
	limits     []int
	result     *services.DiscoveryResult
	runs       []*entities.EventDiscoveryLog
	err        error
}

func (f *fakeBackend) Discover(_ context.Context, req services.DiscoverRequest) (*services.DiscoveryResult, error) {
	f.discovered = append(f.discovered, req)
	return f.result, f.err
}

func (f *fakeBackend) RecentRuns(_ context.Context, limit int) ([]*entities.EventDiscoveryLog, error) {
	f.limits = append(f.limits, limit)
	return f.runs, f.err
}

func openerFor(backend *fakeBackend, paths *[]string, released *bool) Opener {
	return func(_ context.Context, path string) (Backend, func(), error) {
		*paths = append(*paths, path)
		return backend, func() { *released = true }, nil
	}
}

func TestRunCommand(t *testing.T) {
	backend := &fakeBackend{result: &services.DiscoveryResult{
		Platform:  entities.PlatformMeetup,
		Month:     4,
		Year:      2026,
		DateRange: "from April 2026",
		Created:   1,
		Events: []entities.EventSummary{{
			Title:    "LLM Night",
			DateTime: time.Date(2026, time.April, 9, 18, 0, 0, 0, time.UTC),
			Category: entities.CategoryTalk,
		}},
	}}

	var (
		paths    []string
		released bool
		out      bytes.Buffer
	)
	err := RunWithArgs([]string{
		"--config", "scanner.yaml", "run",
		"--location", "Berlin", "--platform", "meetup", "--month", "4", "--year", "2026",
	}, &out, openerFor(backend, &paths, &released))
	require.NoError(t, err)

	assert.Equal(t, []string{"scanner.yaml"}, paths)
	assert.True(t, released)
	require.Len(t, backend.discovered, 1)
	assert.Equal(t, services.DiscoverRequest{Location: "Berlin", Platform: "meetup", Month: 4, Year: 2026}, backend.discovered[0])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "Berlin", decoded["location"])
	assert.Equal(t, "meetup", decoded["platform"])
	assert.Equal(t, "from April 2026", decoded["date_range"])
	assert.EqualValues(t, 1, decoded["created"])
	assert.Len(t, decoded["events"], 1)
}

func TestRunCommand_RequiresLocation(t *testing.T) {
	backend := &fakeBackend{}
	var (
		paths    []string
		released bool
		out      bytes.Buffer
	)
	err := RunWithArgs([]string{"run"}, &out, openerFor(backend, &paths, &released))
	require.Error(t, err)
	assert.Empty(t, paths)
	assert.Empty(t, backend.discovered)
}

func TestRunCommand_DiscoveryError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("search unavailable")}
	var (
		paths    []string
		released bool
		out      bytes.Buffer
	)
	err := RunWithArgs([]string{"run", "-l", "Berlin"}, &out, openerFor(backend, &paths, &released))
	assert.EqualError(t, err, "search unavailable")
	assert.True(t, released)
	assert.Empty(t, out.String())
}

func TestHistoryCommand(t *testing.T) {
	backend := &fakeBackend{runs: []*entities.EventDiscoveryLog{
		{ID: "run-2", Location: "Berlin", Platform: "luma", EventsFound: 3, Success: true},
		{ID: "run-1", Location: "Paris", Platform: "meetup", Success: false, ErrorMessage: "timeout"},
	}}

	var (
		paths    []string
		released bool
		out      bytes.Buffer
	)
	require.NoError(t, RunWithArgs([]string{"history", "-n", "5"}, &out, openerFor(backend, &paths, &released)))
	assert.Equal(t, []int{5}, backend.limits)

	var decoded []entities.EventDiscoveryLog
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "run-2", decoded[0].ID)
	assert.Equal(t, "timeout", decoded[1].ErrorMessage)
}

func TestHistoryCommand_DefaultLimit(t *testing.T) {
	backend := &fakeBackend{}
	var (
		paths    []string
		released bool
		out      bytes.Buffer
	)
	require.NoError(t, RunWithArgs([]string{"history"}, &out, openerFor(backend, &paths, &released)))
	assert.Equal(t, []int{20}, backend.limits)
	assert.Equal(t, []string{""}, paths)
}

func TestOpenBackend_HistoryWithoutAPIKey(t *testing.T) {
	t.Setenv("PERPLEXITY_API_KEY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "scanner.yaml")
	body := "database:\n  driver: sqlite3\n  path: " + filepath.Join(dir, "events.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	var out bytes.Buffer
	err := RunWithArgs([]string{"--config", path, "run", "-l", "Berlin"}, &out, OpenBackend)
	assert.ErrorContains(t, err, "perplexity api key is required")

	out.Reset()
	require.NoError(t, RunWithArgs([]string{"--config", path, "history"}, &out, OpenBackend))

	var decoded []entities.EventDiscoveryLog
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Berlin", decoded[0].Location)
	assert.False(t, decoded[0].Success)
	assert.Contains(t, decoded[0].ErrorMessage, "api key")
}

func TestSubcommandRequired(t *testing.T) {
	var out bytes.Buffer
	err := RunWithArgs([]string{}, &out, func(context.Context, string) (Backend, func(), error) {
		t.Fatal("backend must not be opened")
		return nil, nil, nil
	})
	assert.Error(t, err)
}

func TestHelpIsNotAnError(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, RunWithArgs([]string{"--help"}, &out, nil))
}
