package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"chat-analysis-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	err   error
	calls []tasks.RefreshTask
}

func (p *stubProcessor) Process(_ context.Context, task tasks.RefreshTask) error {
	p.calls = append(p.calls, task)
	return p.err
}

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string) (int64, error) {
	return 0, errors.New("redis down")
}
func (failingCounter) Reset(context.Context, string) error { return nil }

func message(t *testing.T, task tasks.RefreshTask) kafka.Message {
	t.Helper()
	b, err := json.Marshal(task)
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func TestHandleMessageCommitsOnSuccess(t *testing.T) {
	p := &stubProcessor{}
	counter := &MemoryAttempts{}
	task := tasks.RefreshTask{ID: "t1", RequestedBy: "admin", RequestedAt: time.Now()}

	assert.True(t, handleMessage(context.Background(), message(t, task), p, counter))
	require.Len(t, p.calls, 1)
	assert.Equal(t, "t1", p.calls[0].ID)
}

func TestHandleMessageRetriesUntilMaxAttempts(t *testing.T) {
	p := &stubProcessor{err: errors.New("load failed")}
	counter := &MemoryAttempts{}
	m := message(t, tasks.RefreshTask{ID: "t2"})

	for i := 1; i < MaxAttempts; i++ {
		assert.False(t, handleMessage(context.Background(), m, p, counter), "attempt %d", i)
	}
	assert.True(t, handleMessage(context.Background(), m, p, counter))
	assert.Len(t, p.calls, MaxAttempts)
}

func TestHandleMessageSuccessResetsAttempts(t *testing.T) {
	p := &stubProcessor{err: errors.New("load failed")}
	counter := &MemoryAttempts{}
	m := message(t, tasks.RefreshTask{ID: "t3"})

	assert.False(t, handleMessage(context.Background(), m, p, counter))
	p.err = nil
	assert.True(t, handleMessage(context.Background(), m, p, counter))

	n, _ := counter.Incr(context.Background(), "t3")
	assert.Equal(t, int64(1), n)
}

func TestHandleMessageMalformedIsCommitted(t *testing.T) {
	p := &stubProcessor{}
	assert.True(t, handleMessage(context.Background(), kafka.Message{Value: []byte("{")}, p, &MemoryAttempts{}))
	assert.Empty(t, p.calls)
}

func TestHandleMessageCounterFailureKeepsOffset(t *testing.T) {
	p := &stubProcessor{err: errors.New("load failed")}
	assert.False(t, handleMessage(context.Background(), message(t, tasks.RefreshTask{ID: "t4"}), p, failingCounter{}))
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestConsumeStopsOnContextCancel(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{message(t, tasks.RefreshTask{ID: "a"}), message(t, tasks.RefreshTask{ID: "b"})}}
	p := &stubProcessor{}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	consume(ctx, r, p, &MemoryAttempts{})

	assert.Len(t, p.calls, 2)
	assert.Len(t, r.committed, 2)
	assert.True(t, r.closed)
}

func TestProduceWithoutProducer(t *testing.T) {
	producer = nil
	err := Queue{}.Enqueue(context.Background(), tasks.RefreshTask{ID: "x"})
	assert.Error(t, err)
}

// flakyProcessor 前 failures 次处理失败，之后成功。
type flakyProcessor struct {
	failures int
	calls    []string
}

func (p *flakyProcessor) Process(_ context.Context, task tasks.RefreshTask) error {
	p.calls = append(p.calls, task.ID)
	if len(p.calls) <= p.failures {
		return errors.New("load failed")
	}
	return nil
}

func withRetryBackoff(t *testing.T, d time.Duration) {
	t.Helper()
	prev := retryBackoff
	retryBackoff = d
	t.Cleanup(func() { retryBackoff = prev })
}

func TestConsumeRetriesFailedTaskBeforeNextMessage(t *testing.T) {
	withRetryBackoff(t, time.Millisecond)
	r := &fakeReader{msgs: []kafka.Message{message(t, tasks.RefreshTask{ID: "a"}), message(t, tasks.RefreshTask{ID: "b"})}}
	p := &flakyProcessor{failures: 1}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	consume(ctx, r, p, &MemoryAttempts{})

	assert.Equal(t, []string{"a", "a", "b"}, p.calls)
	assert.Len(t, r.committed, 2)
}

func TestConsumeGivesUpAfterMaxAttempts(t *testing.T) {
	withRetryBackoff(t, time.Millisecond)
	r := &fakeReader{msgs: []kafka.Message{message(t, tasks.RefreshTask{ID: "a"}), message(t, tasks.RefreshTask{ID: "b"})}}
	p := &flakyProcessor{failures: MaxAttempts}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	consume(ctx, r, p, &MemoryAttempts{})

	assert.Equal(t, []string{"a", "a", "a", "b"}, p.calls)
	assert.Len(t, r.committed, 2)
}

func TestConsumeStopsRetryingOnCancel(t *testing.T) {
	withRetryBackoff(t, time.Hour)
	r := &fakeReader{msgs: []kafka.Message{message(t, tasks.RefreshTask{ID: "a"})}}
	p := &stubProcessor{err: errors.New("load failed")}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	consume(ctx, r, p, &MemoryAttempts{})

	assert.Len(t, p.calls, 1)
	assert.Empty(t, r.committed)
	assert.True(t, r.closed)
}
