package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project string
		topic   string
		want    string
		wantErr bool
	}{
		{project: "proj", topic: "orders", want: "projects/proj/topics/orders"},
		{project: "proj", topic: "  orders  ", want: "projects/proj/topics/orders"},
		{project: "", topic: "projects/other/topics/orders", want: "projects/other/topics/orders"},
		{project: "", topic: "orders", wantErr: true},
		{project: "proj", topic: " ", wantErr: true},
	}
	for _, tc := range cases {
		got, err := topicResourceName(tc.project, tc.topic)
		if tc.wantErr {
			assert.Error(t, err, tc.topic)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Orders())
	assert.NoError(t, c.Close())
	assert.ErrorIs(t, c.Ping(context.Background()), errNotInitialized)
	assert.Nil(t, NewMessagePublisher(nil))
}
