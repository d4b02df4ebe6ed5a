package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/tracking"
)

func TestPublisher_RejectsMissingRoutingKey(t *testing.T) {
	p := &Publisher{exchange: DefaultExchange}
	err := p.PublishEvent(context.Background(), "", map[string]string{"a": "b"})
	assert.EqualError(t, err, "missing routingKey")
}

func TestPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
	}
	rabbitC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rabbitC.Terminate(ctx) })

	host, err := rabbitC.Host(ctx)
	require.NoError(t, err)
	port, err := rabbitC.MappedPort(ctx, "5672")
	require.NoError(t, err)
	url := "amqp://guest:guest@" + host + ":" + port.Port()

	p, err := NewPublisher(url, "test.discovery")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	// bind a queue so mandatory publishes are routable
	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	ch, err := conn.Channel()
	require.NoError(t, err)
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, tracking.RoutingKeyInteractionRecorded, "test.discovery", false, nil))
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	t.Run("publishes_envelope_with_stable_message_id", func(t *testing.T) {
		env := tracking.DomainEventEnvelope[tracking.InteractionRecordedPayload]{
			Version:   tracking.EventVersion,
			Producer:  tracking.EventProducer,
			MessageID: "evt-123",
			Payload:   tracking.InteractionRecordedPayload{EventID: "evt-123", ActorKey: "u:p1", Action: "click"},
		}
		require.NoError(t, p.PublishEvent(ctx, tracking.RoutingKeyInteractionRecorded, env))

		select {
		case d := <-msgs:
			assert.Equal(t, "evt-123", d.MessageId)
			assert.Equal(t, "application/json", d.ContentType)
			var got map[string]any
			require.NoError(t, json.Unmarshal(d.Body, &got))
			assert.Equal(t, "discovery-service", got["producer"])
		case <-time.After(5 * time.Second):
			t.Fatal("message not delivered")
		}
	})

	t.Run("unroutable_key_is_reported", func(t *testing.T) {
		err := p.PublishEvent(ctx, "nobody.listens", map[string]string{"a": "b"})
		if err != nil {
			assert.Contains(t, err.Error(), "NO_ROUTE")
		}
	})
}
