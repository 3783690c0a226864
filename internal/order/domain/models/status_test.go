package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		legal    bool
	}{
		{StatusPending, StatusPaymentReceived, true},
		{StatusPaymentReceived, StatusConfirmed, true},
		{StatusConfirmed, StatusPreparing, true},
		{StatusPreparing, StatusDispatched, true},
		{StatusDispatched, StatusDelivered, true},

		{StatusPending, StatusCancelled, true},
		{StatusPaymentReceived, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPreparing, StatusCancelled, false},
		{StatusDispatched, StatusCancelled, false},

		{StatusDelivered, StatusPreparing, false},
		{StatusCancelled, StatusPending, false},
		{StatusPending, StatusConfirmed, false},
		{StatusPending, StatusPending, false},
		{StatusPreparing, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			require.Equal(t, tt.legal, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, st := range AllStatuses() {
		if st.Terminal() {
			require.Empty(t, st.Next(), st)
			for _, target := range AllStatuses() {
				require.False(t, st.CanTransitionTo(target))
			}
		} else {
			require.NotEmpty(t, st.Next(), st)
		}
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("payment_received")
	require.NoError(t, err)
	require.Equal(t, StatusPaymentReceived, st)

	_, err = ParseStatus("ready")
	require.Error(t, err)
}

func TestValidHistory(t *testing.T) {
	require.True(t, ValidHistory([]Status{
		StatusPending, StatusPaymentReceived, StatusConfirmed,
		StatusPreparing, StatusDispatched, StatusDelivered,
	}))
	require.True(t, ValidHistory([]Status{StatusPending, StatusCancelled}))

	require.False(t, ValidHistory(nil))
	require.False(t, ValidHistory([]Status{StatusConfirmed}))
	require.False(t, ValidHistory([]Status{StatusPending, StatusDelivered}))
}

func TestNonTerminalStatuses(t *testing.T) {
	require.ElementsMatch(t, []Status{
		StatusPending, StatusPaymentReceived, StatusConfirmed, StatusPreparing, StatusDispatched,
	}, NonTerminalStatuses())
}

func TestActorCanRead(t *testing.T) {
	require.True(t, SessionActor("s1").CanRead("s1"))
	require.False(t, SessionActor("s1").CanRead("s2"))
	require.False(t, SessionActor("").CanRead(""))
	require.True(t, AdminActor("root").CanRead("anything"))
	require.False(t, Actor{Kind: ActorAdmin}.IsAdmin())
}
