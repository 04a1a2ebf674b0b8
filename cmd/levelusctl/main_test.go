package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/johnquangdev/levelus/internal/domain/entities"
	pkgai "github.com/johnquangdev/levelus/pkg/ai"
)

const sampleResponse = `{
  "ok": true,
  "meeting_id": "m-42",
  "gemini_output": "` + "```json" + `\n{\"summary\": \"Planning\", \"meeting_statistics\": {\"speaking_time_seconds\": {\"spk_0\": 12.5}}}\n` + "```" + `"
}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNormalize_StdinJSON(t *testing.T) {
	out, err := execute(t, sampleResponse, "normalize")
	require.NoError(t, err)

	var m entities.Meeting
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "m-42", m.ID)
	assert.Equal(t, "Planning", m.Summary)
	require.Len(t, m.Participants, 1)
	assert.Equal(t, int64(12500), m.Participants[0].TotalSpeakingTime)
}

func TestNormalize_FileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "response.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleResponse), 0o600))

	out, err := execute(t, "", "normalize", path, "--output", "yaml")
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &m))
	assert.Equal(t, "m-42", m["id"])
	assert.Equal(t, "Planning", m["summary"])
}

func TestNormalize_Errors(t *testing.T) {
	_, err := execute(t, "[1,2]", "normalize")
	assert.ErrorContains(t, err, "not a JSON object")

	_, err = execute(t, "{}", "normalize", "--output", "xml")
	assert.ErrorContains(t, err, "unsupported output format")

	_, err = execute(t, "", "normalize", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	out, err := execute(t, "", "replay", "--period", "1ms")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Demo - Retrospective (4 utterances)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Alex: "))
	assert.True(t, strings.HasPrefix(lines[3], "Priya: "))
	assert.True(t, strings.HasPrefix(lines[4], "Sam: "))
}

func TestUpload(t *testing.T) {
	t.Chdir(t.TempDir())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile(pkgai.AudioField)
		require.NoError(t, err)
		assert.Equal(t, "call.wav", header.Filename)
		assert.Contains(t, r.FormValue(pkgai.MeetingStateField), `"id":"weekly"`)
		_, _ = w.Write([]byte(`{"ok": true, "gemini_output": {"summary": "Done"}}`))
	}))
	defer ts.Close()

	audio := filepath.Join(t.TempDir(), "call.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o600))

	out, err := execute(t, "", "upload", audio, "--meeting-id", "weekly", "--backend-url", ts.URL, "--analysis-path", "/analyze")
	require.NoError(t, err)

	var m entities.Meeting
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "weekly", m.ID)
	assert.Equal(t, "Done", m.Summary)
	assert.Equal(t, entities.ModeIntro, m.Mode)
}

func TestUpload_Rejected(t *testing.T) {
	t.Chdir(t.TempDir())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "error": "audio too short"}`))
	}))
	defer ts.Close()

	audio := filepath.Join(t.TempDir(), "call.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o600))

	_, err := execute(t, "", "upload", audio, "--backend-url", ts.URL)
	assert.ErrorContains(t, err, "ANALYSIS_REJECTED")
}
