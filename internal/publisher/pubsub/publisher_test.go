package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newFakeClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(context.Background(), "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestPublisherPublishesJSON(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, srv := newFakeClient(t)
	_, err := client.CreateTopic(ctx, "scrapes")
	require.NoError(t, err)

	pub, err := New(client, "scrapes")
	require.NoError(t, err)
	defer pub.Stop()

	id, err := pub.Publish(ctx, "scrapes", map[string]any{"domain": "example.com", "pages_scraped": 3})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, "example.com", got["domain"])
	require.Equal(t, "scrape.completed", msgs[0].Attributes["event"])
	require.Equal(t, "scrapes", msgs[0].Attributes["topic"])
}

func TestPublisherMissingTopicFails(t *testing.T) {
	t.Parallel()

	client, _ := newFakeClient(t)
	pub, err := New(client, "does-not-exist")
	require.NoError(t, err)
	defer pub.Stop()

	_, err = pub.Publish(context.Background(), "", map[string]string{"k": "v"})
	require.Error(t, err)
}

func TestNewValidatesInputs(t *testing.T) {
	t.Parallel()

	_, err := New(nil, "topic")
	require.Error(t, err)

	client, _ := newFakeClient(t)
	_, err = New(client, "")
	require.Error(t, err)
}
