package stats

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/codecollab/relay/server/internal/router"
)

// ConnCounter reports the number of live connections.
type ConnCounter interface {
	Count() int
}

// RoomSizer reports the number of active rooms.
type RoomSizer interface {
	Size() int
}

// MessageCounter reports cumulative routing counters.
type MessageCounter interface {
	Counters() router.Counters
}

// Snapshot is one reading of the relay's state.
type Snapshot struct {
	Connections int             `json:"connections"`
	Rooms       int             `json:"rooms"`
	Messages    router.Counters `json:"-"`
	TakenAt     time.Time       `json:"taken_at"`
}

// Reporter reads relay state on demand and on a fixed interval.
type Reporter struct {
	conns    ConnCounter
	rooms    RoomSizer
	messages MessageCounter // may be nil
	interval time.Duration
	now      func() time.Time
}

// New creates a Reporter. messages may be nil.
func New(conns ConnCounter, rooms RoomSizer, messages MessageCounter, interval time.Duration) *Reporter {
	return &Reporter{
		conns:    conns,
		rooms:    rooms,
		messages: messages,
		interval: interval,
		now:      time.Now,
	}
}

// Snapshot reads the current counts.
func (r *Reporter) Snapshot() Snapshot {
	s := Snapshot{
		Connections: r.conns.Count(),
		Rooms:       r.rooms.Size(),
		TakenAt:     r.now().UTC(),
	}
	if r.messages != nil {
		s.Messages = r.messages.Counters()
	}
	return s
}

// Run logs a stats record every interval until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.report()
		}
	}
}

func (r *Reporter) report() {
	s := r.Snapshot()
	slog.Info("relay stats",
		"connections", s.Connections,
		"rooms", s.Rooms,
		"joins", s.Messages.Joins,
		"leaves", s.Messages.Leaves,
		"updates", s.Messages.Updates,
		"malformed", s.Messages.Malformed,
		"dropped", s.Messages.Dropped,
		"delivery_failures", s.Messages.DeliveryFailures,
	)
}

// ServeHTTP writes the current snapshot in Prometheus text format.
func (r *Reporter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	for _, mf := range r.families(r.Snapshot()) {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			slog.Error("stats: encode metric family", "name", mf.GetName(), "err", err)
			http.Error(w, "encode metrics", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (r *Reporter) families(s Snapshot) []*dto.MetricFamily {
	out := []*dto.MetricFamily{
		gauge("relay_connections", "Live relay connections.", float64(s.Connections)),
		gauge("relay_rooms", "Rooms with at least one participant.", float64(s.Rooms)),
	}
	if r.messages == nil {
		return out
	}

	byKind := []struct {
		kind  string
		value uint64
	}{
		{"join", s.Messages.Joins},
		{"leave", s.Messages.Leaves},
		{"update", s.Messages.Updates},
	}
	messages := &dto.MetricFamily{
		Name: proto.String("relay_messages_total"),
		Help: proto.String("Frames routed, by kind."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, k := range byKind {
		messages.Metric = append(messages.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: proto.String("kind"), Value: proto.String(k.kind)}},
			Counter: &dto.Counter{Value: proto.Float64(float64(k.value))},
		})
	}

	return append(out,
		messages,
		counter("relay_malformed_frames_total", "Frames rejected with an error notice.", s.Messages.Malformed),
		counter("relay_dropped_updates_total", "Updates dropped because the sender had not joined a room.", s.Messages.Dropped),
		counter("relay_delivery_failures_total", "Per-recipient broadcast deliveries that failed.", s.Messages.DeliveryFailures),
	)
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}

func counter(name, help string, v uint64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(float64(v))}}},
	}
}
