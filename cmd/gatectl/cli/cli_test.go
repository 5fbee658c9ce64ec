package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailybit/internal/gate"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "gatectl dev\n", out)
}

func TestClassify(t *testing.T) {
	t.Run("scripted client is an agent", func(t *testing.T) {
		out, err := run(t, "classify", "--user-agent", "curl/8.4.0", "--accept", "*/*")
		require.NoError(t, err)

		var res classifyResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.True(t, res.IsAgent)
		assert.GreaterOrEqual(t, res.Score, 40)
		assert.NotEmpty(t, res.Matched)
	})

	t.Run("browser navigation is human", func(t *testing.T) {
		out, err := run(t, "classify",
			"--user-agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 Safari/605.1.15",
			"--sec-fetch-mode", "navigate", "--sec-fetch-dest", "document", "--accept", "text/html")
		require.NoError(t, err)

		var res classifyResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.False(t, res.IsAgent)
	})

	t.Run("client navigation header short-circuits", func(t *testing.T) {
		out, err := run(t, "classify", "--user-agent", "curl/8.4.0", "-H", "RSC: 1")
		require.NoError(t, err)

		var res classifyResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.False(t, res.IsAgent)
		assert.Equal(t, []string{}, res.Matched)
	})

	t.Run("malformed header flag", func(t *testing.T) {
		_, err := run(t, "classify", "-H", "no-colon")
		require.Error(t, err)
	})
}

func TestCheck(t *testing.T) {
	t.Setenv("SKILL_PASSPHRASE", "open-sesame")

	t.Run("ungated path passes", func(t *testing.T) {
		out, err := run(t, "check", "--url", "/api/archive")
		require.NoError(t, err)

		var res checkResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.False(t, res.Gated)
		assert.Equal(t, "pass", res.Decision)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Nil(t, res.Body)
	})

	t.Run("missing ack is rejected without leaking the passphrase", func(t *testing.T) {
		out, err := run(t, "check", "--url", "/api/articles/latest")
		require.NoError(t, err)
		assert.NotContains(t, out, "open-sesame")

		var res checkResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.True(t, res.Gated)
		assert.Equal(t, "missing_acknowledgment", res.Decision)
		assert.Equal(t, http.StatusForbidden, res.Status)
		require.NotNil(t, res.Body)
		assert.Equal(t, gate.ErrAckRequired, res.Body.Error)
	})

	t.Run("complete request passes", func(t *testing.T) {
		out, err := run(t, "check", "--url",
			"https://example.com/api/articles/latest?ack=open-sesame&rationale=user_reads_ai_news&pstate=no_token")
		require.NoError(t, err)

		var res checkResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, "/api/articles/latest", res.Path)
		assert.Equal(t, "pass", res.Decision)
	})

	t.Run("config overlay replaces the passphrase", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gate.yaml")
		require.NoError(t, os.WriteFile(path, []byte("gate:\n  passphrase: from-file\n"), 0o600))

		out, err := run(t, "--config", path, "check", "--url", "/api/content/abc?ack=from-file")
		require.NoError(t, err)

		var res checkResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, "pass", res.Decision)
	})

	t.Run("url flag is required", func(t *testing.T) {
		_, err := run(t, "check")
		require.Error(t, err)
	})
}
