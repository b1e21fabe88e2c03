package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls   atomic.Int32
	failFor int32
	err     error
}

func (c *countingClient) Name() string { return "counting" }
func (c *countingClient) Close() error { return nil }

func (c *countingClient) GenerateSegments(_ context.Context, _ string, _ int) ([]string, error) {
	n := c.calls.Add(1)
	if n <= c.failFor {
		return nil, c.err
	}
	return []string{"ok"}, nil
}

func TestRetryRecoversFromTransientError(t *testing.T) {
	inner := &countingClient{failFor: 2, err: errors.New("transient")}
	cli := Chain(inner, Retry(3, time.Millisecond))

	segs, err := cli.GenerateSegments(context.Background(), "p", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, segs)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &countingClient{failFor: 10, err: errors.New("still down")}
	cli := Chain(inner, Retry(2, time.Millisecond))

	_, err := cli.GenerateSegments(context.Background(), "p", 4)
	require.Error(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestRetrySkipsPermanentError(t *testing.T) {
	perm := &PermanentError{Err: errors.New("bad request")}
	inner := &countingClient{failFor: 10, err: perm}
	cli := Chain(inner, Retry(5, time.Millisecond))

	_, err := cli.GenerateSegments(context.Background(), "p", 4)
	require.Error(t, err)
	assert.Equal(t, int32(1), inner.calls.Load(), "permanent errors must not be retried")

	var pErr *PermanentError
	assert.True(t, errors.As(err, &pErr))
}

func TestRetryStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &countingClient{failFor: 10, err: errors.New("down")}
	cli := Chain(inner, Retry(5, time.Millisecond))

	_, err := cli.GenerateSegments(ctx, "p", 4)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestSplitSegments(t *testing.T) {
	text := "first paragraph\n\n\n\nsecond paragraph\n\nthird"
	assert.Equal(t, []string{"first paragraph", "second paragraph", "third"}, SplitSegments(text, 0))
	assert.Equal(t, []string{"first paragraph", "second paragraph"}, SplitSegments(text, 2))
	assert.Nil(t, SplitSegments("   \n\n  ", 0))
}

func TestFakeClientCannedResponseUsesRepoName(t *testing.T) {
	f := NewFakeClient()
	segs, err := f.GenerateSegments(context.Background(), "Repository: octo/demo\nLanguage: Go\n", 8)
	require.NoError(t, err)
	require.NotEmpty(t, segs)
	assert.Contains(t, segs[0], "octo/demo")
}

func TestFakeClientRespectsSegmentBudget(t *testing.T) {
	f := NewFakeClient()
	segs, err := f.GenerateSegments(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Len(t, segs, 2)
}
