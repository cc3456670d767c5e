package transporter

import (
	"context"

	"github.com/stretchr/testify/mock"
	"orbitrelay.dev/orbitlib/connection/pending"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect(ctx context.Context, app AppContext, config Config) (*Connection, error) {
	args := m.Called(app, config)
	conn, _ := args.Get(0).(*Connection)
	return conn, args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(app AppContext, pending *pending.Tracker, line string) {
	m.Called(app, pending, line)
}

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) Dead() <-chan struct{} {
	args := m.Called()
	return args.Get(0).(chan struct{})
}

func (m *MockLifecycle) Err() error {
	args := m.Called()
	return args.Error(0)
}
