package broker

type publishChannelContent[TID comparable, TPayload any] struct {
	ID      TID
	Channel chan TPayload
}

type subscribeChannelContent[TID comparable, TPayload any] struct {
	ID      TID
	Channel chan chan TPayload
}

// ChannelBroker passes a channel with ID from producer to the first consumer.
// The subsequent consumers block until the producer unpublishes and then see their subscription closed.
//
// The speech pipeline of the web driver uses it to hand synthesized audio to the browser. The producer is the
// speech worker playing an utterance, the first consumer is the HTTP handler streaming the audio of the
// dialogue. Subsequent consumers are usually retries of the audio element and get nothing, since the audio
// can be listened to only once.
type ChannelBroker[TID comparable, TPayload any] struct {
	stopChannel      chan struct{}
	publishChannel   chan publishChannelContent[TID, TPayload]
	unpublishChannel chan TID
	subscribeChannel chan subscribeChannelContent[TID, TPayload]
}

// NewChannelBroker creates a new ChannelBroker. Run Start in a goroutine and stop it with Stop.
func NewChannelBroker[TID comparable, TPayload any]() *ChannelBroker[TID, TPayload] {
	broker := ChannelBroker[TID, TPayload]{
		stopChannel:      make(chan struct{}),
		publishChannel:   make(chan publishChannelContent[TID, TPayload]),
		unpublishChannel: make(chan TID),
		subscribeChannel: make(chan subscribeChannelContent[TID, TPayload]),
	}
	return &broker
}

// Start listening for publish, unpublish, and subscribe events. This function blocks until Stop() is called,
// so it should be called in a goroutine. It does not handle panics, so it should be wrapped in a recover.
func (b *ChannelBroker[TID, TPayload]) Start() {
	publishedChannels := map[TID]chan TPayload{}
	// waiting holds the subscribers that arrived after the first one.
	waiting := map[TID][]chan chan TPayload{}
	delivered := map[TID]bool{}
	for {
		select {
		case <-b.stopChannel:
			for _, subscribers := range waiting {
				for _, subscriber := range subscribers {
					close(subscriber)
				}
			}
			return

		case subscription := <-b.subscribeChannel:
			c := publishedChannels[subscription.ID]
			if c == nil {
				// Signal to the subscriber that the producer is finished (or hasn't started yet)
				close(subscription.Channel)
				break
			}
			if !delivered[subscription.ID] {
				// First subscriber gets the channel from the producer
				delivered[subscription.ID] = true
				subscription.Channel <- c
				break
			}
			// Subsequent subscribers block until the producer is finished
			waiting[subscription.ID] = append(waiting[subscription.ID], subscription.Channel)

		case publication := <-b.publishChannel:
			publishedChannels[publication.ID] = publication.Channel
			delete(delivered, publication.ID)

		case id := <-b.unpublishChannel:
			for _, subscriber := range waiting[id] {
				close(subscriber)
			}
			delete(publishedChannels, id)
			delete(waiting, id)
			delete(delivered, id)
		}
	}
}

// Stop the goroutine that handles the broker.
func (b *ChannelBroker[TID, TPayload]) Stop() {
	close(b.stopChannel)
}

// Subscribe to the channel with ID. Returns a channel that will receive the channel corresponding to the ID.
// If the channel is not yet published, the returned channel will be closed.
// If there's already a subscriber, the returned channel will block until the producer is finished and then
// close the returned channel.
func (b *ChannelBroker[TID, TPayload]) Subscribe(id TID) chan chan TPayload {
	channel := make(chan chan TPayload, 1)
	b.subscribeChannel <- subscribeChannelContent[TID, TPayload]{
		ID:      id,
		Channel: channel,
	}
	return channel
}

// Publish the channel with ID. The channel will be sent to the first subscriber.
func (b *ChannelBroker[TID, TPayload]) Publish(id TID, channel chan TPayload) {
	b.publishChannel <- publishChannelContent[TID, TPayload]{
		ID:      id,
		Channel: channel,
	}
}

// Unpublish the channel with ID. Note that the channel will be removed from the broker which means
// that subscribers will not be able to receive the channel from the broker. The suggested way to
// get around this is an unbuffered channel that blocks the producer until it gets a consumer. If the
// consumers are unreliable, the producer should have a timeout to not block forever.
func (b *ChannelBroker[TID, TPayload]) Unpublish(id TID) {
	b.unpublishChannel <- id
}
