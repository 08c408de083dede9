package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/emote-relay/internal/database"
	"github.com/haytac/emote-relay/internal/emote"
)

// setupTestConfig writes a config file pointing at a temporary database.
func setupTestConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "cli_test.db")
	cfgPath = filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("database_path: %s\nlog:\n  level: error\n", dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	t.Cleanup(func() { AppCfg = nil })
	return cfgPath, dbPath
}

// executeCommand runs a fresh command tree and captures its output.
func executeCommand(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return strings.TrimSpace(buf.String()), err
}

func TestProxyCommands(t *testing.T) {
	cfgPath, dbPath := setupTestConfig(t)

	output, err := executeCommand(t, cfgPath, "proxy", "add", "my-cli-proxy", "http", "1.2.3.4:9090", "--username", "user", "--password", "pass", "--default-catalogs")
	require.NoError(t, err)
	assert.Contains(t, output, "Proxy 'my-cli-proxy' added successfully with ID:")

	_, err = executeCommand(t, cfgPath, "proxy", "add", "bad", "ftp", "1.2.3.4:21")
	assert.ErrorContains(t, err, "invalid proxy type")

	output, err = executeCommand(t, cfgPath, "proxy", "list")
	require.NoError(t, err)
	lines := strings.Split(output, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ID", "NAME", "TYPE", "ADDRESS", "AUTH", "DEFAULT", "FOR"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "my-cli-proxy", "http", "1.2.3.4:9090", "yes", "catalogs"}, strings.Fields(lines[1]))

	db, err := database.Connect(dbPath)
	require.NoError(t, err)
	defer db.Close()
	p, err := database.NewProxyStore(db).GetDefaultProxy(context.Background(), database.ProxyForCatalogs)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.Password)
	assert.Equal(t, "pass", *p.Password)
}

func TestChannelCommands(t *testing.T) {
	cfgPath, dbPath := setupTestConfig(t)

	output, err := executeCommand(t, cfgPath, "channel", "add", "forsen", "--user-id", "22484632", "--chat-id", "@forsen_relay")
	require.NoError(t, err)
	assert.Contains(t, output, "Channel 'forsen' added successfully")

	_, err = executeCommand(t, cfgPath, "channel", "add", "other", "--user-id", "1", "--size", "5")
	assert.ErrorIs(t, err, emote.ErrInvalidSize)

	output, err = executeCommand(t, cfgPath, "channel", "size", "forsen", "3")
	require.NoError(t, err)
	assert.Contains(t, output, "size set to 3")

	_, err = executeCommand(t, cfgPath, "channel", "size", "nobody", "2")
	assert.ErrorContains(t, err, "not found")

	output, err = executeCommand(t, cfgPath, "channel", "disable", "forsen")
	require.NoError(t, err)
	assert.Contains(t, output, "Channel 'forsen' disabled.")

	output, err = executeCommand(t, cfgPath, "channel", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "Name: forsen, UserID: 22484632, Size: 3")
	assert.Contains(t, output, "Chat: @forsen_relay")
	assert.Contains(t, output, "Status: disabled")

	db, err := database.Connect(dbPath)
	require.NoError(t, err)
	defer db.Close()
	enabled, err := database.NewChannelStore(db).GetEnabledChannels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, enabled)
}

func TestRenderCommand(t *testing.T) {
	cfgPath, _ := setupTestConfig(t)

	bodies := map[string]string{
		"/7tv/users/1234": `{"emote_set":{"emotes":[{"id":"id123","name":"NODDERS"}]}}`,
		"/bttv/global":    `[{"id":"b1","code":"catJAM"}]`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	orig := catalogEndpoints
	catalogEndpoints = emote.Endpoints{
		emote.SevenTV: {Global: srv.URL + "/7tv/global", Scoped: srv.URL + "/7tv/users/%s"},
		emote.FFZ:     {Global: srv.URL + "/ffz/global", Scoped: srv.URL + "/ffz/room/%s"},
		emote.BTTV:    {Global: srv.URL + "/bttv/global", Scoped: srv.URL + "/bttv/users/%s"},
	}
	t.Cleanup(func() { catalogEndpoints = orig })

	output, err := executeCommand(t, cfgPath, "render", "--user-id", "1234", "--channel", "chan", "--size", "3", "NODDERS hi catJAM")
	require.NoError(t, err)
	assert.Equal(t,
		`<img class="sevenTV-emote emote" src="https://cdn.7tv.app/emote/id123/3x.webp"> hi `+
			`<img class="BTTV-emote emote" src="https://cdn.betterttv.net/emote/b1/3x">`, output)

	output, err = executeCommand(t, cfgPath, "render", "--user-id", "1234", "--channel", "chan", "--tags", "25:0-4", "--strip", "Kappa NODDERS hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", output)

	_, err = executeCommand(t, cfgPath, "render", "--user-id", "1234", "--channel", "chan", "--size", "0", "hi")
	assert.ErrorIs(t, err, emote.ErrInvalidSize)
}

func TestDbBackupAndRestore(t *testing.T) {
	cfgPath, dbPath := setupTestConfig(t)

	_, err := executeCommand(t, cfgPath, "channel", "add", "forsen", "--user-id", "1")
	require.NoError(t, err)

	backupPath := filepath.Join(filepath.Dir(dbPath), "backup.db")
	output, err := executeCommand(t, cfgPath, "db", "backup", "-o", backupPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Database backup successful.")

	_, err = executeCommand(t, cfgPath, "channel", "add", "later", "--user-id", "2")
	require.NoError(t, err)

	output, err = executeCommand(t, cfgPath, "db", "restore", "--yes", backupPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Database restore successful.")

	output, err = executeCommand(t, cfgPath, "channel", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "Name: forsen")
	assert.NotContains(t, output, "Name: later")
}
