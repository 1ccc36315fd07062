package mqtt

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/judsound-box/internal/logic"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

// stuckToken never completes, like a publish to an unresponsive broker.
type stuckToken struct{}

func (stuckToken) Wait() bool                     { return false }
func (stuckToken) WaitTimeout(time.Duration) bool { return false }
func (stuckToken) Done() <-chan struct{}          { return make(chan struct{}) }
func (stuckToken) Error() error                   { return nil }

// fakeClient implements the parts of paho.Client the publisher uses.
type fakeClient struct {
	paho.Client

	mu        sync.Mutex
	open      bool
	published []string
	token     paho.Token
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, topic)
	if c.token != nil {
		return c.token
	}
	return doneToken{}
}

func (c *fakeClient) Disconnect(uint) {}

func (c *fakeClient) setOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

func TestRealPublisherBuffersWhileOffline(t *testing.T) {
	c := &fakeClient{}
	p := newPublisherWithClient(c, nil)

	if err := p.Publish(logic.Notice{Type: logic.NoticeAlarmSet}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}
	if p.Buffered() != 2 {
		t.Fatalf("buffered: got %d, want 2", p.Buffered())
	}
	if len(c.published) != 0 {
		t.Fatalf("published while offline: %v", c.published)
	}

	c.setOpen(true)
	p.flush()
	if p.Buffered() != 0 {
		t.Errorf("buffered after flush: got %d, want 0", p.Buffered())
	}
	want := []string{Topic, TopicSystem}
	if len(c.published) != 2 || c.published[0] != want[0] || c.published[1] != want[1] {
		t.Errorf("replay order: got %v, want %v", c.published, want)
	}
}

func TestRealPublisherOnline(t *testing.T) {
	c := &fakeClient{open: true}
	p := newPublisherWithClient(c, nil)
	if !p.IsConnected() {
		t.Error("IsConnected: got false")
	}
	if err := p.Publish(logic.Notice{Type: logic.NoticeModeChanged}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if p.Buffered() != 0 || len(c.published) != 1 {
		t.Errorf("got buffered=%d published=%d", p.Buffered(), len(c.published))
	}
}

func TestRealPublisherNoticeDoesNotWaitForBroker(t *testing.T) {
	c := &fakeClient{open: true, token: stuckToken{}}
	p := newPublisherWithClient(c, nil)

	done := make(chan error, 1)
	go func() { done <- p.Publish(logic.Notice{Type: logic.NoticeAlarmSet}) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Publish: got %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on an unacknowledged notice")
	}
}

func TestRealPublisherSystemEventTimesOut(t *testing.T) {
	c := &fakeClient{open: true, token: stuckToken{}}
	p := newPublisherWithClient(c, nil)

	err := p.PublishSystem(SystemEvent{Event: "HEARTBEAT"})
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("PublishSystem: got %v, want timeout error", err)
	}
}

func TestRealPublisherNoticeErrorIsNotReturned(t *testing.T) {
	c := &fakeClient{open: true, token: doneToken{err: errors.New("broken pipe")}}
	p := newPublisherWithClient(c, nil)

	if err := p.Publish(logic.Notice{Type: logic.NoticeModeChanged}); err != nil {
		t.Errorf("Publish: got %v, want nil", err)
	}
	if err := p.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("PublishSystem: want the delivery error")
	}
}
