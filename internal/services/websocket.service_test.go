package services

import (
	"testing"
	"time"

	"timefilter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubscription_Validate(t *testing.T) {
	assert.NoError(t, Subscription{Period: PeriodLatest, Duration: "PT6H"}.Validate())
	assert.NoError(t, Subscription{Period: PeriodPrevious, Duration: "P3M", Metric: models.MetricDisk}.Validate())

	assert.Error(t, Subscription{Period: "someday", Duration: "P1D"}.Validate())
	assert.Error(t, Subscription{Period: PeriodCurrent, Duration: "P7D"}.Validate())
	assert.Error(t, Subscription{Period: PeriodLatest, Duration: "1h"}.Validate())
	assert.Error(t, Subscription{Period: PeriodLatest, Duration: "PT1H", Metric: "gpu"}.Validate())
}

func TestClientConnection_Subscribe(t *testing.T) {
	client := NewClientConnection("c1", nil)
	_, ok := client.Subscription()
	assert.False(t, ok)

	assert.Error(t, client.Subscribe(Subscription{Period: "someday"}))
	_, ok = client.Subscription()
	assert.False(t, ok, "invalid subscriptions are not stored")

	require.NoError(t, client.Subscribe(Subscription{Period: PeriodLatest, Duration: "PT1H"}))
	sub, ok := client.Subscription()
	assert.True(t, ok)
	assert.Equal(t, "PT1H", sub.Duration)

	client.Unsubscribe()
	_, ok = client.Subscription()
	assert.False(t, ok)
}

func TestWebSocketHub_PushHistory(t *testing.T) {
	hc := newTestCollector(10)
	hc.Record(snapshotAt(time.Now().Add(-time.Minute), 7, 0))
	hub := NewWebSocketHub(hc, NewQueryCache(time.Second), time.Second, zap.NewNop())

	subscribed := NewClientConnection("subscribed", nil)
	require.NoError(t, subscribed.Subscribe(Subscription{Period: PeriodLatest, Duration: "PT1H", Metric: models.MetricCPU}))
	idle := NewClientConnection("idle", nil)

	hub.addClient(subscribed)
	hub.addClient(idle)
	assert.Equal(t, 2, hub.ClientCount())

	hub.pushHistory()

	require.Len(t, subscribed.Send, 1)
	msg := <-subscribed.Send
	assert.Equal(t, MessageHistory, msg.Type)
	payload, ok := msg.Data.(HistoryPayload)
	require.True(t, ok)
	assert.Equal(t, PeriodLatest, payload.Subscription.Period)
	points := payload.Data.([]models.CPUHistory)
	require.Len(t, points, 1)
	assert.Equal(t, 7.0, points[0].Usage)

	assert.Empty(t, idle.Send, "clients without a subscription get nothing")

	hub.removeClient("idle")
	assert.Equal(t, 1, hub.ClientCount())
	_, open := <-idle.Send
	assert.False(t, open)
}

func TestWebSocketHub_RunAndStop(t *testing.T) {
	hc := newTestCollector(10)
	hub := NewWebSocketHub(hc, NewQueryCache(time.Second), time.Hour, zap.NewNop())
	go hub.run(t.Context())

	client := NewClientConnection("c1", nil)
	hub.Register(client)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(WebSocketMessage{Type: MessagePresets})
	assert.Eventually(t, func() bool { return len(client.Send) == 1 }, time.Second, 5*time.Millisecond)

	hub.Stop()
	hub.Stop()
	hub.Unregister("c1") // must not block once stopped
}
