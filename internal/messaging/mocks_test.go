package messaging_test

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

type sampleEvent struct {
	Code   string `json:"code"`
	Clicks int64  `json:"clicks"`
}

type mockPublisher struct {
	mu         sync.Mutex
	topic      string
	messages   []*message.Message
	publishErr error
	closeErr   error
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.topic = topic
	m.messages = append(m.messages, msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	return m.closeErr
}

type mockSubscriber struct {
	msgs         chan *message.Message
	subscribeErr error
	closeOnce    sync.Once
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{msgs: make(chan *message.Message, 8)}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgs, nil
}

func (m *mockSubscriber) Close() error {
	m.closeOnce.Do(func() { close(m.msgs) })

	return nil
}

type mockRunnable struct {
	started     bool
	stopped     bool
	startErr    error
	shutdownErr error
}

func (m *mockRunnable) Start(_ context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockRunnable) Shutdown() error {
	m.stopped = true

	return m.shutdownErr
}
