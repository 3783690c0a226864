package feed

import (
	"sync"
	"testing"
	"time"

	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/logger"

	"github.com/stretchr/testify/require"
)

func event(session, code string, status, old models.Status) models.OrderEvent {
	typ := models.EventUpdate
	if old == "" {
		typ = models.EventInsert
	}
	return models.OrderEvent{
		Type:      typ,
		Order:     models.Order{SessionID: session, TrackingCode: code, Status: status},
		OldStatus: old,
	}
}

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		event  models.OrderEvent
		want   bool
	}{
		{"empty filter", Filter{}, event("s1", "FPI-1", models.StatusPending, ""), true},
		{"session match", Filter{SessionID: "s1"}, event("s1", "FPI-1", models.StatusPending, ""), true},
		{"session mismatch", Filter{SessionID: "s2"}, event("s1", "FPI-1", models.StatusPending, ""), false},
		{"code mismatch", Filter{TrackingCode: "FPI-2"}, event("s1", "FPI-1", models.StatusPending, ""), false},
		{"active keeps live", Filter{ActiveOnly: true}, event("s1", "FPI-1", models.StatusPreparing, models.StatusConfirmed), true},
		{"active keeps final move", Filter{ActiveOnly: true}, event("s1", "FPI-1", models.StatusDelivered, models.StatusDispatched), true},
		{"active drops settled", Filter{ActiveOnly: true}, event("s1", "FPI-1", models.StatusCancelled, ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.filter.Match(tt.event))
		})
	}
}

func TestHubRoutesBySession(t *testing.T) {
	hub := NewHub(logger.Nop())
	alice := hub.Subscribe(Filter{SessionID: "alice"})
	bob := hub.Subscribe(Filter{SessionID: "bob"})
	admin := hub.Subscribe(Filter{ActiveOnly: true})

	n := hub.Publish(event("alice", "FPI-A", models.StatusPending, ""))
	require.Equal(t, 2, n)

	got := <-alice.C
	require.Equal(t, "FPI-A", got.Order.TrackingCode)
	got = <-admin.C
	require.Equal(t, "FPI-A", got.Order.TrackingCode)

	select {
	case e := <-bob.C:
		t.Fatalf("bob received %s", e.Order.TrackingCode)
	default:
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewHub(logger.Nop())
	hub.buffer = 1
	slow := hub.Subscribe(Filter{})
	fast := hub.Subscribe(Filter{})

	require.Equal(t, 2, hub.Publish(event("s", "FPI-1", models.StatusPending, "")))
	<-fast.C
	require.Equal(t, 1, hub.Publish(event("s", "FPI-2", models.StatusPending, "")))

	got := <-slow.C
	require.Equal(t, "FPI-1", got.Order.TrackingCode)
	got = <-fast.C
	require.Equal(t, "FPI-2", got.Order.TrackingCode)
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := NewHub(logger.Nop())
	sub := hub.Subscribe(Filter{})
	require.Equal(t, 1, hub.Len())

	sub.Close()
	sub.Close()
	require.Equal(t, 0, hub.Len())
	_, ok := <-sub.C
	require.False(t, ok)
	require.Equal(t, 0, hub.Publish(event("s", "FPI-1", models.StatusPending, "")))
}

func TestHubCloseEndsSubscribers(t *testing.T) {
	hub := NewHub(logger.Nop())
	sub := hub.Subscribe(Filter{})
	hub.Close()

	_, ok := <-sub.C
	require.False(t, ok)
	sub.Close()

	late := hub.Subscribe(Filter{})
	_, ok = <-late.C
	require.False(t, ok)
}

func TestHubConcurrentPublish(t *testing.T) {
	hub := NewHub(logger.Nop())
	hub.buffer = 100
	sub := hub.Subscribe(Filter{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				hub.Publish(event("s", "FPI-1", models.StatusPending, ""))
			}
		}()
	}
	wg.Wait()

	timeout := time.After(time.Second)
	for i := 0; i < 40; i++ {
		select {
		case <-sub.C:
		case <-timeout:
			t.Fatalf("received %d of 40 events", i)
		}
	}
}
