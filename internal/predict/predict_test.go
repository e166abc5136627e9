package predict

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventQueueAppendsInArrivalOrder(t *testing.T) {
	q := NewEventQueue()
	q.Append("aa:bb", EventRecord{Timestamp: 1, Event: "on"})
	q.Append("aa:bb", EventRecord{Timestamp: 2, Event: "off"})
	events := q.Events("aa:bb")
	require.Len(t, events, 2)
	require.Equal(t, "on", events[0].Event)
	require.Equal(t, "off", events[1].Event)
}

func TestEventQueueUnknownMACReturnsEmpty(t *testing.T) {
	q := NewEventQueue()
	require.Empty(t, q.Events("unknown"))
}
