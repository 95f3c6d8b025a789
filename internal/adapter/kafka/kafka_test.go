package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/gssha-etl/internal/config"
	"github.com/couchcryptid/gssha-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 8, 25, 15, 10, 0, 0, time.UTC)
	doc := domain.ConvertedFile{
		ID:          "a1b2c3d4e5f60708",
		Kind:        domain.KindChannel,
		SourcePath:  "drop/park_city.cif",
		Canonical:   []byte("GSSHA_CHAN\n"),
		Stable:      true,
		ConvertedAt: now,
	}

	msg, err := serializeToMessage(doc)
	require.NoError(t, err)

	assert.Equal(t, []byte("a1b2c3d4e5f60708"), msg.Key)
	assert.Contains(t, string(msg.Value), `"kind":"channel"`)
	assert.Contains(t, string(msg.Value), `"stable":true`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("channel"), msg.Headers[0].Value)
	assert.Equal(t, "converted_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestNewWriter_ConfiguresSinkTopic(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers:   []string{"broker1:9092"},
		KafkaSinkTopic: "gssha-model-documents",
	}

	w := NewWriter(cfg, nil)
	defer w.Close()

	assert.Equal(t, "gssha-model-documents", w.writer.Topic)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
}
