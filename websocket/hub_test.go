package websocket

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscribedClient(hub *Hub, caseID string) *Client {
	client := &Client{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Hub:    hub,
		Send:   make(chan WebSocketMessage), // unbuffered: every send is "slow"
		Cases:  map[string]bool{caseID: true},
	}
	hub.mu.Lock()
	hub.clients[client] = true
	hub.mu.Unlock()
	return client
}

func TestConcurrentBroadcastsDropSlowClients(t *testing.T) {
	hub := NewHub()
	applicationID := uuid.New()

	clients := make([]*Client, 0, 50)
	for i := 0; i < 50; i++ {
		clients = append(clients, subscribedClient(hub, applicationID.String()))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.BroadcastCaseRefresh(applicationID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.GetClientCount())
	for _, client := range clients {
		_, open := <-client.Send
		require.False(t, open, "send channel must be closed exactly once")
	}
}

func TestDropClientsSkipsAlreadyRemoved(t *testing.T) {
	hub := NewHub()
	client := subscribedClient(hub, uuid.New().String())

	hub.dropClients([]*Client{client})
	require.Equal(t, 0, hub.GetClientCount())

	// A second removal, as when an unregister races a broadcast, must not
	// close the channel again.
	require.NotPanics(t, func() {
		hub.dropClients([]*Client{client})
	})
}
