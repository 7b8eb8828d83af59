package events

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerFiltersBySession(t *testing.T) {
	b := NewBroker()
	mine := b.Subscribe("a")
	all := b.Subscribe("")
	defer b.Unsubscribe(mine)
	defer b.Unsubscribe(all)

	b.Publish(Event{SessionID: "b", Current: 1, Total: 2})
	b.Publish(Event{SessionID: "a", Current: 2, Total: 2})

	assert.Equal(t, "a", (<-mine).SessionID)
	assert.Len(t, mine, 0)
	assert.Equal(t, "b", (<-all).SessionID)
	assert.Equal(t, "a", (<-all).SessionID)
}

func TestBrokerUnsubscribeTwiceIsSafe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("")
	b.Unsubscribe(ch)
	assert.NotPanics(t, func() { b.Unsubscribe(ch) })

	_, ok := <-ch
	assert.False(t, ok)
}

func TestServeSSEWritesProgress(t *testing.T) {
	b := NewBroker()
	srv := httptest.NewServer(http.HandlerFunc(b.ServeSSE))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?session=s1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Publish repeatedly; the first events may race the handler start.
	go func() {
		for i := 0; i < 50; i++ {
			b.Publish(Event{SessionID: "s1", Epoch: 3, Current: 1, Total: 4})
			time.Sleep(20 * time.Millisecond)
		}
	}()

	reader := bufio.NewReader(resp.Body)
	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.JSONEq(t, `{"sessionId":"s1","epoch":3,"current":1,"total":4}`, data)
}

func TestServeWSStreamsJSON(t *testing.T) {
	b := NewBroker()
	srv := httptest.NewServer(http.HandlerFunc(b.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?session=s2"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	go func() {
		for i := 0; i < 50; i++ {
			b.Publish(Event{SessionID: "s2", Current: 2, Total: 2, Done: true})
			time.Sleep(20 * time.Millisecond)
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var evt Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, "s2", evt.SessionID)
	assert.True(t, evt.Done)
}
