package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/ralt/metasync/internal/models"
	"github.com/ralt/metasync/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *models.RunResult {
	return &models.RunResult{
		Identifier: "acme/widget",
		Platform:   "memory",
		Canonical: &models.CanonicalMetadata{
			Name:          "widget",
			Description:   "Widgets for everyone",
			RepositoryURL: "https://github.com/acme/widget",
			Topics:        models.NewTopicSet("b", "c"),
			Identifier:    "acme/widget",
		},
		Remote: &models.RemoteMetadata{
			Identifier:    "acme/widget",
			Name:          "widget",
			Homepage:      "https://hand-edited.dev",
			Description:   "old",
			RepositoryURL: "https://github.com/acme/widget",
			Topics:        models.NewTopicSet("a", "b"),
		},
		Diff: models.DiffResult{
			models.FieldDescription: {Field: models.FieldDescription, Canonical: "Widgets for everyone", Remote: "old"},
			models.FieldTopics:      {Field: models.FieldTopics, Canonical: "b,c", Remote: "a,b", Missing: []string{"c"}},
		},
		Apply: &models.ApplyReport{Results: []models.FieldResult{
			{Field: models.FieldDescription, Status: models.StatusFailed, Reason: "RemoteRejected: too long", Attempts: 1},
			{Field: models.FieldTopics, Status: models.StatusApplied, Attempts: 1},
		}},
		Verify: &models.VerifyReport{
			Fields: []models.FieldVerification{
				{Field: models.FieldDescription, Status: models.VerifyDiverging, Reason: "apply failed"},
				{Field: models.FieldTopics, Status: models.VerifyConverged},
			},
			Polls:   1,
			Elapsed: 10 * time.Millisecond,
		},
		Warnings:  []string{"remote repository URL differs"},
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "JSON", " yaml ", ""} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestRows(t *testing.T) {
	rows := Rows(sampleResult())
	require.Len(t, rows, 5)

	byField := make(map[string][]string)
	for _, row := range rows {
		byField[row[0]] = row
	}

	assert.Equal(t, []string{"name", "widget", "widget", "identity", "", ""}, byField["name"])
	assert.Equal(t, []string{"homepage", "-", "https://hand-edited.dev", "unmanaged", "", ""}, byField["homepage"])
	assert.Equal(t, "failed after 1: RemoteRejected: too long", byField["description"][4])
	assert.Equal(t, "diverging", byField["description"][5])
	assert.Equal(t, []string{"topics", "b,c", "a,b", "missing c", "applied", "converged"}, byField["topics"])
}

func TestRowsDryRun(t *testing.T) {
	result := sampleResult()
	result.DryRun = true
	result.Apply = nil
	result.Verify = nil

	for _, row := range Rows(result) {
		if row[0] == "topics" {
			assert.Equal(t, "would apply", row[4])
		}
	}
}

func TestCellTruncates(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := cell(long)
	assert.Len(t, []rune(got), maxCellWidth)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "-", cell(""))
	assert.Equal(t, "a b", cell("a\nb"))
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "Repository: acme/widget (memory)")
	assert.Contains(t, out, "missing c")
	assert.Contains(t, out, "warning: remote repository URL differs")
	assert.Contains(t, out, "2 fields drifted, 1 field applied, 1 field failed, 1 field still diverging")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, sampleResult()))

	var decoded models.RunResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "acme/widget", decoded.Identifier)
	assert.Equal(t, []string{"c"}, decoded.Diff[models.FieldTopics].Missing)
	assert.Equal(t, []string{"a", "b"}, decoded.Remote.Topics.Sorted())
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, sampleResult()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "acme/widget", decoded["identifier"])
	assert.Contains(t, buf.String(), "- c")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "run.json")
	require.NoError(t, WriteFile(path, sampleResult(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded models.RunResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "acme/widget", decoded.Identifier)

	_, err = os.Stat(path + ".asc")
	assert.True(t, os.IsNotExist(err), "no signature without a signer")
	_, err = os.Stat(path + ".pub")
	assert.True(t, os.IsNotExist(err), "no public key without a signer")
}

func TestWriteFileGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json.gz")
	require.NoError(t, WriteFile(path, sampleResult(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	plain, err := utils.GzipDecompress(data)
	require.NoError(t, err)
	assert.Contains(t, string(plain), `"identifier": "acme/widget"`)
}

type fakeSigner struct {
	signed []byte
	keyErr error
}

func (f *fakeSigner) SignDetached(data []byte) ([]byte, error) {
	f.signed = data
	return []byte("-----BEGIN PGP SIGNATURE-----\n"), nil
}

func (f *fakeSigner) GetPublicKey() ([]byte, error) {
	if f.keyErr != nil {
		return nil, f.keyErr
	}
	return []byte("-----BEGIN PGP PUBLIC KEY BLOCK-----\n"), nil
}

func (f *fakeSigner) Fingerprint() string { return "ABCD" }

func TestWriteFileSigned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json.gz")
	s := &fakeSigner{}
	require.NoError(t, WriteFile(path, sampleResult(), s))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, written, s.signed, "signature covers the bytes on disk")

	sig, err := os.ReadFile(path + ".asc")
	require.NoError(t, err)
	assert.Contains(t, string(sig), "PGP SIGNATURE")

	pub, err := os.ReadFile(path + ".pub")
	require.NoError(t, err)
	assert.Contains(t, string(pub), "PGP PUBLIC KEY BLOCK")
}

func TestWriteFileSignedKeyExportError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	err := WriteFile(path, sampleResult(), &fakeSigner{keyErr: errors.New("no public key")})
	assert.True(t, models.IsErrorType(err, models.ErrReportWrite), "%v", err)
	assert.Contains(t, err.Error(), "no public key")
}

func TestWriteFileError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := WriteFile(filepath.Join(blocker, "run.json"), sampleResult(), nil)
	assert.True(t, models.IsErrorType(err, models.ErrReportWrite), "%v", err)
}
