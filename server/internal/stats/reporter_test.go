package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/codecollab/relay/server/internal/router"
)

type fixedCount int

func (f fixedCount) Count() int { return int(f) }
func (f fixedCount) Size() int  { return int(f) }

type fixedCounters router.Counters

func (f fixedCounters) Counters() router.Counters { return router.Counters(f) }

// syncBuffer is a bytes.Buffer safe for concurrent slog writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return buf
}

func scrape(t *testing.T, h http.Handler) map[string]*dto.MetricFamily {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type: got %q", ct)
	}
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(rr.Body)
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}
	return mfs
}

func TestSnapshot(t *testing.T) {
	r := New(fixedCount(4), fixedCount(2), nil, time.Minute)
	s := r.Snapshot()
	if s.Connections != 4 {
		t.Errorf("Connections: got %d, want 4", s.Connections)
	}
	if s.Rooms != 2 {
		t.Errorf("Rooms: got %d, want 2", s.Rooms)
	}
	if s.TakenAt.IsZero() {
		t.Error("TakenAt: zero")
	}
}

func TestServeHTTP_Gauges(t *testing.T) {
	r := New(fixedCount(5), fixedCount(3), nil, time.Minute)
	mfs := scrape(t, r)

	if v := mfs["relay_connections"].GetMetric()[0].GetGauge().GetValue(); v != 5 {
		t.Errorf("relay_connections: got %v, want 5", v)
	}
	if v := mfs["relay_rooms"].GetMetric()[0].GetGauge().GetValue(); v != 3 {
		t.Errorf("relay_rooms: got %v, want 3", v)
	}
	if _, ok := mfs["relay_messages_total"]; ok {
		t.Error("relay_messages_total: present without a message counter")
	}
}

func TestServeHTTP_MessageCounters(t *testing.T) {
	r := New(fixedCount(1), fixedCount(1), fixedCounters{
		Joins: 3, Leaves: 1, Updates: 10, Malformed: 2, Dropped: 4, DeliveryFailures: 5,
	}, time.Minute)
	mfs := scrape(t, r)

	byKind := map[string]float64{}
	for _, m := range mfs["relay_messages_total"].GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "kind" {
				byKind[l.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	want := map[string]float64{"join": 3, "leave": 1, "update": 10}
	for k, v := range want {
		if byKind[k] != v {
			t.Errorf("relay_messages_total{kind=%q}: got %v, want %v", k, byKind[k], v)
		}
	}

	checks := map[string]float64{
		"relay_malformed_frames_total":  2,
		"relay_dropped_updates_total":   4,
		"relay_delivery_failures_total": 5,
	}
	for name, v := range checks {
		mf, ok := mfs[name]
		if !ok {
			t.Errorf("%s: missing", name)
			continue
		}
		if got := mf.GetMetric()[0].GetCounter().GetValue(); got != v {
			t.Errorf("%s: got %v, want %v", name, got, v)
		}
	}
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	r := New(fixedCount(0), fixedCount(0), nil, time.Minute)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

func TestRun_LogsOnInterval(t *testing.T) {
	logs := captureLogs(t)
	r := New(fixedCount(2), fixedCount(1), nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var rec map[string]interface{}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec["msg"] == "relay stats" {
			found = true
			if rec["connections"].(float64) != 2 || rec["rooms"].(float64) != 1 {
				t.Errorf("record: got %v", rec)
			}
		}
	}
	if !found {
		t.Errorf("no relay stats record in logs:\n%s", logs.String())
	}
}
