package kafka

// NewPublisherWithWriter exposes newPublisher to tests.
var NewPublisherWithWriter = func(w messageWriter, topic string) *Publisher {
	return newPublisher(w, topic)
}
