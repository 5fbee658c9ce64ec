package kafka

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"dailybit/internal/accesslog/models"
	id "dailybit/pkg/domain"
)

type fakeProducer struct {
	produced []*kgo.Record
	err      error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var results kgo.ProduceResults
	for _, r := range rs {
		f.produced = append(f.produced, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func sampleRecord() models.Record {
	owner := id.AccountID(uuid.New())
	return models.NewRecord(models.Snapshot{
		Endpoint:  "/api/articles/latest",
		Method:    "GET",
		UserAgent: "ClaudeBot/1.0",
		Query:     url.Values{"tags": {"AI"}, "token": {"secret"}},
		Status:    200,
		At:        time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC),
	}, &owner)
}

func TestPublisher_AppendProducesKeyedRecord(t *testing.T) {
	producer := &fakeProducer{}
	rec := sampleRecord()

	require.NoError(t, New(producer, "access").Append(context.Background(), rec))
	require.Len(t, producer.produced, 1)

	got := producer.produced[0]
	assert.Equal(t, "access", got.Topic)
	assert.Equal(t, rec.ID.String(), string(got.Key))
	assert.Equal(t, rec.CreatedAt, got.Timestamp)
	assert.NotContains(t, string(got.Value), "secret", "token was stripped before publishing")

	decoded, err := Decode(got.Value)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}

func TestPublisher_AppendSurfacesBrokerError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("not leader")}

	err := New(producer, "access").Append(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not leader")
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode([]byte("{"))
	require.Error(t, err)

	_, err = Decode([]byte(`{"endpoint":"/api/content"}`))
	require.Error(t, err)
}
