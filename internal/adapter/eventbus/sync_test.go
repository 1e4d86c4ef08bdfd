package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
)

func newTestBus(t *testing.T) *SyncEventBus {
	t.Helper()
	bus := NewSyncEventBus(logger.NewTestLogger())
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestNewSyncEventBus(t *testing.T) {
	bus := NewSyncEventBus(nil)
	require.NotNil(t, bus)
	assert.Equal(t, 0, bus.SubscriberCount())
	assert.False(t, bus.closed)
}

func TestPublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	var received []domain.Event
	subID := bus.Subscribe(domain.EventVolumeChanged, func(e domain.Event) {
		received = append(received, e)
	})
	require.NotEmpty(t, subID)

	bus.Publish(domain.NewVolumeChangedEvent(0.5))
	bus.Publish(domain.NewPlayModeChangedEvent(domain.PlayModeRandom))

	require.Len(t, received, 1)
	ev, ok := received[0].(domain.VolumeChangedEvent)
	require.True(t, ok)
	assert.Equal(t, 0.5, ev.Volume)
}

func TestPublishNilEvent(t *testing.T) {
	bus := newTestBus(t)
	called := false
	bus.SubscribeAll(func(domain.Event) { called = true })

	bus.Publish(nil)
	assert.False(t, called)
}

func TestDeliveryOrderFollowsSubscriptionOrder(t *testing.T) {
	bus := newTestBus(t)

	var order []int
	ids := make([]domain.SubscriptionID, 0, 4)
	for i := range 4 {
		ids = append(ids, bus.Subscribe(domain.EventThemeChanged, func(domain.Event) {
			order = append(order, i)
		}))
	}
	bus.Unsubscribe(ids[1])

	bus.Publish(domain.NewThemeChangedEvent(domain.ThemeDark))
	assert.Equal(t, []int{0, 2, 3}, order)
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus(t)

	var count int
	id := bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) { count++ })

	bus.Publish(domain.NewVolumeChangedEvent(0.1))
	bus.Unsubscribe(id)
	bus.Publish(domain.NewVolumeChangedEvent(0.2))

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, bus.SubscriberCount())

	// unknown IDs are ignored
	bus.Unsubscribe("sub-does-not-exist")
}

func TestSubscribeAll(t *testing.T) {
	bus := newTestBus(t)

	var types []domain.EventType
	id := bus.SubscribeAll(func(e domain.Event) { types = append(types, e.Type()) })

	bus.Publish(domain.NewVolumeChangedEvent(0.3))
	bus.Publish(domain.NewThemeChangedEvent(domain.ThemeLight))

	assert.Equal(t, []domain.EventType{domain.EventVolumeChanged, domain.EventThemeChanged}, types)

	bus.Unsubscribe(id)
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestSubscribeFiltered(t *testing.T) {
	bus := newTestBus(t)

	var got []float64
	bus.SubscribeFiltered(domain.EventVolumeChanged, func(e domain.Event) bool {
		return !e.(domain.VolumeChangedEvent).Muted()
	}, func(e domain.Event) {
		got = append(got, e.(domain.VolumeChangedEvent).Volume)
	})

	bus.Publish(domain.NewVolumeChangedEvent(0))
	bus.Publish(domain.NewVolumeChangedEvent(0.7))

	assert.Equal(t, []float64{0.7}, got)
}

func TestHasSubscribers(t *testing.T) {
	bus := newTestBus(t)

	assert.False(t, bus.HasSubscribers(domain.EventTrackLoaded))
	id := bus.Subscribe(domain.EventTrackLoaded, func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventTrackLoaded))
	assert.False(t, bus.HasSubscribers(domain.EventTrackEnded))

	bus.Unsubscribe(id)
	bus.SubscribeAll(func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventTrackEnded))
}

func TestHandlerPanicDoesNotStopDelivery(t *testing.T) {
	bus := newTestBus(t)

	var reached bool
	bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) { panic("boom") })
	bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) { reached = true })

	assert.NotPanics(t, func() { bus.Publish(domain.NewVolumeChangedEvent(1)) })
	assert.True(t, reached)
}

func TestClose(t *testing.T) {
	bus := NewSyncEventBus(nil)

	var count int
	bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) { count++ })

	require.NoError(t, bus.Close())
	assert.Error(t, bus.Close())
	assert.Equal(t, 0, bus.SubscriberCount())

	bus.Publish(domain.NewVolumeChangedEvent(0.4))
	assert.Equal(t, 0, count)

	assert.Panics(t, func() { bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) {}) })
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := newTestBus(t)

	var delivered atomic.Int64
	bus.Subscribe(domain.EventTrackProgress, func(domain.Event) { delivered.Add(1) })

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				bus.Publish(domain.NewTrackProgressEvent(0, 0))
			}
		}()
		go func() {
			defer wg.Done()
			id := bus.Subscribe(domain.EventTrackEnded, func(domain.Event) {})
			bus.Unsubscribe(id)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), delivered.Load())
	assert.Equal(t, 1, bus.SubscriberCount())
}
