package nats

import (
	"testing"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeCarriesType(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	data, err := Encode(events.BaseEvent{
		Type:       events.ApplicationWithdrawn,
		Data:       map[string]interface{}{"crn": "X320741"},
		OccurredAt: at,
	})
	require.NoError(t, err)

	evt, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, events.ApplicationWithdrawn, evt.EventType())
	assert.Equal(t, "X320741", evt.Payload()["crn"])
	assert.True(t, at.Equal(evt.Timestamp()))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
