package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/emote-relay/internal/proxy"
	"github.com/haytac/emote-relay/pkg/interfaces"
)

type sentMessage struct {
	chatID, text string
}

func fakeBotAPI(t *testing.T) (*httptest.Server, func() []sentMessage) {
	t.Helper()
	var (
		mu   sync.Mutex
		sent []sentMessage
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Relay","username":"relay_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			mu.Lock()
			sent = append(sent, sentMessage{chatID: r.FormValue("chat_id"), text: r.FormValue("text")})
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":-1001,"type":"group"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []sentMessage {
		mu.Lock()
		defer mu.Unlock()
		return append([]sentMessage(nil), sent...)
	}
}

func TestClient_Send(t *testing.T) {
	srv, sent := fakeBotAPI(t)
	c := NewClient("123:abc", proxy.NewHTTPClientFactory(5*time.Second))
	c.endpoint = srv.URL + "/bot%s/%s"

	parts := []interfaces.MessagePart{{Text: "hello"}, {Text: ""}, {Text: "world"}}
	require.NoError(t, c.Send(context.Background(), "-1001", parts, nil))

	got := sent()
	require.Len(t, got, 2)
	assert.Equal(t, "-1001", got[0].chatID)
	assert.Equal(t, "hello", got[0].text)
	assert.Equal(t, "world", got[1].text)
}

func TestClient_SendWithoutToken(t *testing.T) {
	c := NewClient("", proxy.NewHTTPClientFactory(0))
	err := c.Send(context.Background(), "1", []interfaces.MessagePart{{Text: "x"}}, nil)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestSplitMessage(t *testing.T) {
	parts := SplitMessage("short", "")
	require.Len(t, parts, 1)
	assert.Equal(t, "short", parts[0].Text)

	long := strings.Repeat("é", maxMessageLength*2+10)
	parts = SplitMessage(long, "HTML")
	require.Len(t, parts, 3)
	assert.Equal(t, maxMessageLength, len([]rune(parts[0].Text)))
	assert.Equal(t, 10, len([]rune(parts[2].Text)))
	assert.Equal(t, "HTML", parts[2].ParseMode)
}
