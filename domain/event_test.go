package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWireShape(t *testing.T) {
	ev := NewCreateEvent(7, Product{ProductID: 7, Name: "p", Weight: 3})

	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Len(t, wire, 4)
	assert.JSONEq(t, `"CREATE"`, string(wire["eventType"]))
	assert.JSONEq(t, `7`, string(wire["key"]))
	assert.JSONEq(t, `{"productId":7,"name":"p","weight":3,"serviceAddress":""}`, string(wire["data"]))

	var created string
	require.NoError(t, json.Unmarshal(wire["eventCreatedAt"], &created))
	_, err = time.Parse(time.RFC3339Nano, created)
	assert.NoError(t, err)
}

func TestDeleteEventHasNullData(t *testing.T) {
	raw, err := json.Marshal(NewDeleteEvent[Review](3))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":null`)

	decoded, err := DecodeEvent[Review](raw)
	require.NoError(t, err)
	assert.Equal(t, EventDelete, decoded.Type())
	assert.Equal(t, 3, decoded.Key())
	assert.Nil(t, decoded.Data())
}

func TestDecodeEventIgnoresUnknownFieldsAndKeepsUnknownType(t *testing.T) {
	body := []byte(`{"eventType":"UPSERT","key":5,"data":{"productId":5,"recommendationId":1,"rating":4,"extra":true},"eventCreatedAt":"2024-01-02T03:04:05Z","trace":"x"}`)

	ev, err := DecodeEvent[Recommendation](body)
	require.NoError(t, err)
	assert.Equal(t, EventType("UPSERT"), ev.Type())
	assert.Equal(t, 5, ev.Key())
	require.NotNil(t, ev.Data())
	assert.Equal(t, 4, ev.Data().Rating)
	assert.True(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Equal(ev.CreatedAt()))
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := DecodeEvent[Product]([]byte(`{not json`))
	assert.True(t, IsDomainError(err, ErrCodeBadRequest))
}

func TestEventDataIsACopy(t *testing.T) {
	ev := NewCreateEvent(1, Product{ProductID: 1, Name: "before"})
	ev.Data().Name = "after"
	assert.Equal(t, "before", ev.Data().Name)
}
