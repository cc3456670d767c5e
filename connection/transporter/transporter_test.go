package transporter

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"orbitrelay.dev/orbitlib/connection/pending"
)

func TestTransporter(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transporter Suite")
}

var _ = Describe("State", func() {
	var tracker *pending.Tracker
	var state *State

	BeforeEach(func() {
		tracker = pending.NewTracker()
		state = NewState(tracker)
	})

	It("starts out connected", func() {
		Expect(state.Connected()).To(BeTrue())
		Expect(state.Pending()).To(BeIdenticalTo(tracker))
	})

	When("the connection is marked disconnected twice", func() {
		var completion <-chan pending.Result
		var first, second bool

		BeforeEach(func() {
			_, completion = tracker.Track()

			first = state.MarkDisconnected()
			second = state.MarkDisconnected()
		})

		It("only transitions once", func() {
			Expect(first).To(BeTrue())
			Expect(second).To(BeFalse())
			Expect(state.Connected()).To(BeFalse())
		})

		It("fails each pending request exactly once", func() {
			var result pending.Result
			Expect(completion).To(Receive(&result))

			var disconnected *DisconnectedError
			Expect(errors.As(result.Err, &disconnected)).To(BeTrue(), "expected a disconnection error, got: %s", result.Err)
			Expect(completion).ToNot(Receive())
			Expect(tracker.IsEmpty()).To(BeTrue())
		})
	})

	When("both pumps fail at the same time", func() {
		It("lets exactly one of them drain the pending requests", func() {
			_, completion := tracker.Track()

			var wg sync.WaitGroup
			transitions := make(chan bool, 2)
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					transitions <- state.MarkDisconnected()
				}()
			}
			wg.Wait()
			close(transitions)

			winners := 0
			for transitioned := range transitions {
				if transitioned {
					winners++
				}
			}
			Expect(winners).To(Equal(1))
			Expect(completion).To(Receive())
			Expect(completion).ToNot(Receive())
		})
	})
})

var _ = Describe("Outbox", func() {
	var outbox *Outbox

	BeforeEach(func() {
		outbox = NewOutbox()
	})

	It("hands out messages in the order they were pushed", func() {
		for i := 0; i < 100; i++ {
			Expect(outbox.Push(fmt.Sprint(i))).To(Succeed())
		}
		Expect(outbox.Len()).To(Equal(100))

		for i := 0; i < 100; i++ {
			message, ok := outbox.Next()
			Expect(ok).To(BeTrue())
			Expect(message).To(Equal(fmt.Sprint(i)))
		}
	})

	It("wakes a waiting consumer", func() {
		received := make(chan string, 1)
		go func() {
			message, _ := outbox.Next()
			received <- message
		}()

		Consistently(received, 100*time.Millisecond).ShouldNot(Receive())
		outbox.Push("hello")
		Eventually(received).Should(Receive(Equal("hello")))
	})

	When("it is closed", func() {
		BeforeEach(func() {
			outbox.Push("queued before close")
			outbox.Close()
			outbox.Close()
		})

		It("refuses new messages", func() {
			Expect(outbox.Push("late")).To(MatchError(ErrConnectionClosed))
			Expect(outbox.Closed()).To(BeTrue())
		})

		It("still drains what was queued and then ends", func() {
			message, ok := outbox.Next()
			Expect(ok).To(BeTrue())
			Expect(message).To(Equal("queued before close"))

			_, ok = outbox.Next()
			Expect(ok).To(BeFalse())
		})
	})

	It("releases a waiting consumer when closed", func() {
		ended := make(chan bool, 1)
		go func() {
			_, ok := outbox.Next()
			ended <- ok
		}()

		outbox.Close()
		Eventually(ended).Should(Receive(BeFalse()))
	})
})

var _ = Describe("Connection", func() {
	var lifecycle *MockLifecycle
	var state *State
	var outbox *Outbox
	var conn *Connection
	var dead chan struct{}

	BeforeEach(func() {
		dead = make(chan struct{})
		lifecycle = &MockLifecycle{}
		lifecycle.On("Dead").Return(dead)
		lifecycle.On("Err").Return(fmt.Errorf("still running"))

		state = NewState(pending.NewTracker())
		outbox = NewOutbox()
		conn = NewConnection("test-connection", state, outbox, lifecycle)
	})

	It("queues outbound messages", func() {
		Expect(conn.Send("ping")).To(Succeed())

		message, ok := outbox.Next()
		Expect(ok).To(BeTrue())
		Expect(message).To(Equal("ping"))
	})

	It("reflects the shared liveness flag", func() {
		Expect(conn.IsConnected()).To(BeTrue())
		state.MarkDisconnected()
		Expect(conn.IsConnected()).To(BeFalse())
	})

	It("fails to send once closed", func() {
		conn.Close()
		Expect(conn.Send("ping")).To(MatchError(ErrConnectionClosed))
	})

	It("exposes its lifecycle", func() {
		Expect(conn.Id()).To(Equal("test-connection"))
		Expect(conn.Done()).ToNot(BeClosed())
		close(dead)
		Expect(conn.Done()).To(BeClosed())
		Expect(conn.Err()).To(MatchError("still running"))
	})
})

var _ = Describe("Config", func() {
	It("tags each variant with its transport kind", func() {
		var config Config = OrbitWsConfig{WsUrl: "wss://relay.example.dev"}
		Expect(config.Kind()).To(Equal(OrbitWs))

		config = TcpConfig{Host: "127.0.0.1:4732"}
		Expect(config.Kind()).To(Equal(Tcp))
	})

	It("describes a mismatched configuration", func() {
		err := &ConfigMismatchError{Expected: OrbitWs, Actual: Tcp}
		Expect(err.Error()).To(Equal("invalid transport config for orbit-ws transport: got tcp"))
	})

	It("keeps the cause of a failed connection", func() {
		cause := fmt.Errorf("connection refused")
		err := &ConnectError{Url: "wss://relay.example.dev", InnerErr: cause}
		Expect(err.Error()).To(ContainSubstring("wss://relay.example.dev"))
		Expect(errors.Is(err, cause)).To(BeTrue())
	})
})
