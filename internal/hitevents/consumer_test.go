package hitevents

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/digipin/internal/hotness/expdecay"
)

type sess struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *sess) Claims() map[string][]int32 { return nil }
func (s *sess) MemberID() string           { return "" }
func (s *sess) GenerationID() int32        { return 0 }
func (s *sess) MarkMessage(m *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	s.marked = append(s.marked, m.Offset)
	s.mu.Unlock()
}
func (s *sess) ResetOffset(_ string, _ int32, _ int64, _ string) {}
func (s *sess) MarkOffset(_ string, _ int32, _ int64, _ string)  {}
func (s *sess) Context() context.Context                         { return s.ctx }
func (s *sess) Commit()                                          {}

type claim struct {
	part int32
	msgs chan *sarama.ConsumerMessage
}

func (c *claim) Topic() string                            { return "digipin-lookups" }
func (c *claim) Partition() int32                         { return c.part }
func (c *claim) InitialOffset() int64                     { return 0 }
func (c *claim) HighWaterMarkOffset() int64               { return 0 }
func (c *claim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func eventBytes(code string) []byte {
	b, _ := json.Marshal(Event{Op: "decode", Digipin: code, TS: time.Now().UTC()})
	return b
}

func newTestConsumer() (*Consumer, *expdecay.Tracker) {
	hot := expdecay.New(0)
	cfg := ConsumerConfig{Brokers: []string{"x"}, Topic: "digipin-lookups", GroupID: "g"}
	return NewConsumer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), hot), hot
}

func TestConsumeClaim_CountsAreasAndMarksInOrder(t *testing.T) {
	c, hot := newTestConsumer()
	g := &groupHandler{process: c.ProcessOne}
	s := &sess{ctx: t.Context()}

	ch := make(chan *sarama.ConsumerMessage, 4)
	ch <- &sarama.ConsumerMessage{Offset: 10, Value: eventBytes("39J-438-TJC7")}
	ch <- &sarama.ConsumerMessage{Offset: 11, Value: eventBytes("39j438tjc8")}
	ch <- &sarama.ConsumerMessage{Offset: 12, Value: []byte("{not json")}
	ch <- &sarama.ConsumerMessage{Offset: 13, Value: eventBytes("39J-438-TJCX")}
	close(ch)

	if err := g.ConsumeClaim(s, &claim{msgs: ch}); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}
	if len(s.marked) != 4 || s.marked[0] != 10 || s.marked[3] != 13 {
		t.Fatalf("marked offsets=%v want [10 11 12 13]", s.marked)
	}
	if got := hot.Score("39J438"); math.Abs(got-2) > 0.01 {
		t.Fatalf("score=%v want 2", got)
	}
	if hot.Size() != 1 {
		t.Fatalf("bad events should not create areas, size=%d", hot.Size())
	}
}

func TestConsumeClaim_StopsOnProcessError(t *testing.T) {
	s := &sess{ctx: context.Background()}
	g := &groupHandler{process: func(context.Context, *sarama.ConsumerMessage) error {
		return errors.New("boom")
	}}
	ch := make(chan *sarama.ConsumerMessage, 1)
	ch <- &sarama.ConsumerMessage{Offset: 5}
	close(ch)

	if err := g.ConsumeClaim(s, &claim{msgs: ch}); err == nil {
		t.Fatal("expected error")
	}
	if len(s.marked) != 0 {
		t.Fatalf("failed message must not be marked; marked=%v", s.marked)
	}
}

func TestConsumeClaim_MultiPartition(t *testing.T) {
	c, hot := newTestConsumer()
	g := &groupHandler{process: c.ProcessOne}
	s := &sess{ctx: t.Context()}

	p0 := make(chan *sarama.ConsumerMessage, 2)
	p1 := make(chan *sarama.ConsumerMessage, 2)
	p0 <- &sarama.ConsumerMessage{Partition: 0, Offset: 1, Value: eventBytes("4P3-JK8-52C9")}
	p0 <- &sarama.ConsumerMessage{Partition: 0, Offset: 2, Value: eventBytes("4P3-JK8-52C9")}
	p1 <- &sarama.ConsumerMessage{Partition: 1, Offset: 1, Value: eventBytes("4FK-595-8823")}
	p1 <- &sarama.ConsumerMessage{Partition: 1, Offset: 2, Value: eventBytes("4FK-595-8823")}
	close(p0)
	close(p1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = g.ConsumeClaim(s, &claim{part: 0, msgs: p0}) }()
	go func() { defer wg.Done(); _ = g.ConsumeClaim(s, &claim{part: 1, msgs: p1}) }()
	wg.Wait()

	if len(s.marked) != 4 {
		t.Fatalf("expected 4 marks total; got %v", s.marked)
	}
	top := hot.Top(2)
	if len(top) != 2 || top[0].Score < 1.99 || top[1].Score < 1.99 {
		t.Fatalf("top=%+v", top)
	}
}

func TestConsumerStart_RequiresTracker(t *testing.T) {
	c := NewConsumer(ConsumerConfig{}, nil, nil)
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected error without tracker")
	}
}

func TestProcessOne_SkipsInvalidSymbols(t *testing.T) {
	c, hot := newTestConsumer()
	for i, code := range []string{"XXX-XXX-XXXX", "39J-43A-TJC7", "39J-438"} {
		msg := &sarama.ConsumerMessage{Offset: int64(i), Value: eventBytes(code)}
		if err := c.ProcessOne(t.Context(), msg); err != nil {
			t.Fatalf("%s: ProcessOne: %v", code, err)
		}
	}
	if hot.Size() != 0 {
		t.Fatalf("invalid codes were counted: top=%+v", hot.Top(5))
	}
	if got := hot.Score("XXXXXX"); got != 0 {
		t.Fatalf("score(XXXXXX)=%v want 0", got)
	}
}
