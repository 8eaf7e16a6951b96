package heartbeat

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const testInterval = 5 * time.Millisecond

type fakePinger struct {
	calls  atomic.Int32
	failAt int32 // Ping number (1-based) that returns an error; 0 = never
}

func (f *fakePinger) Ping() error {
	n := f.calls.Add(1)
	if f.failAt > 0 && n >= f.failAt {
		return errors.New("write: broken pipe")
	}
	return nil
}

func waitDone(t *testing.T, m *Monitor) {
	t.Helper()
	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not exit")
	}
}

func TestMonitor_PingsOnEveryTick(t *testing.T) {
	p := &fakePinger{}
	m := Start(p, testInterval, nil)
	time.Sleep(10 * testInterval)
	m.Stop()
	waitDone(t, m)

	if n := p.calls.Load(); n < 3 {
		t.Errorf("Ping calls: got %d, want at least 3", n)
	}
}

func TestMonitor_FailureCallsBackOnce(t *testing.T) {
	p := &fakePinger{failAt: 2}
	var (
		mu       sync.Mutex
		failures []error
	)
	m := Start(p, testInterval, func(err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
	})
	waitDone(t, m)
	time.Sleep(5 * testInterval)

	mu.Lock()
	defer mu.Unlock()
	if len(failures) != 1 {
		t.Fatalf("onFailure calls: got %d, want 1", len(failures))
	}
	if n := p.calls.Load(); n != 2 {
		t.Errorf("Ping calls after failure: got %d, want 2", n)
	}
}

func TestMonitor_StopIsIdempotent(t *testing.T) {
	m := Start(&fakePinger{}, testInterval, nil)
	m.Stop()
	m.Stop()
	waitDone(t, m)
	m.Stop()
}

func TestMonitor_StopFromFailureCallback(t *testing.T) {
	var m *Monitor
	ready := make(chan struct{})
	m = Start(&fakePinger{failAt: 1}, testInterval, func(error) {
		<-ready
		m.Stop()
	})
	close(ready)
	waitDone(t, m)
}

func TestMonitor_NoPingAfterStop(t *testing.T) {
	p := &fakePinger{}
	m := Start(p, testInterval, nil)
	m.Stop()
	waitDone(t, m)

	before := p.calls.Load()
	time.Sleep(5 * testInterval)
	if after := p.calls.Load(); after != before {
		t.Errorf("Ping calls after Stop: got %d, want %d", after, before)
	}
}
