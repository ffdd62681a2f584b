package jobs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestClient_EnqueuePosting(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	env := testEnvelope(t)

	require.NoError(t, client.EnqueuePosting(ctx, env))
	require.True(t, mr.Exists("asynq:{default}:t:"+TaskID(env.Key)))

	// The same event again is absorbed by the task id.
	require.NoError(t, client.EnqueuePosting(ctx, env))

	pending, err := mr.List("asynq:{default}:pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, TaskID(env.Key), pending[0])
}

func TestClient_EnqueuePostingRedisDown(t *testing.T) {
	client, mr := newTestClient(t)
	mr.Close()

	require.Error(t, client.EnqueuePosting(context.Background(), testEnvelope(t)))
}

func TestRedisOpts(t *testing.T) {
	opt, err := RedisOpts("redis://localhost:6379/2")
	require.NoError(t, err)
	clientOpt, ok := opt.(asynq.RedisClientOpt)
	require.True(t, ok)
	require.Equal(t, "localhost:6379", clientOpt.Addr)
	require.Equal(t, 2, clientOpt.DB)

	_, err = RedisOpts("http://localhost")
	require.Error(t, err)
}
