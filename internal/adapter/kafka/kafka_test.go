package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 6, 1, 15, 10, 0, 0, time.UTC)
	band := "stable"
	record := domain.CleanRecord{
		ID:                  "alphaland-2020-deadbeef",
		Country:             "Alphaland",
		Year:                2020,
		InfrastructureScore: 62.5,
		Band:                &band,
		ProcessedAt:         now,
	}

	msg, err := serializeToMessage(record)
	require.NoError(t, err)

	assert.Equal(t, []byte("alphaland-2020-deadbeef"), msg.Key)
	assert.Contains(t, string(msg.Value), `"infrastructure_score":62.5`)
	assert.Contains(t, string(msg.Value), `"band":"stable"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "country", msg.Headers[0].Key)
	assert.Equal(t, []byte("Alphaland"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_OmitsUnsetOptionalFields(t *testing.T) {
	record := domain.CleanRecord{
		ID:      "betaville-2020-cafef00d",
		Country: "Betaville",
		Year:    2020,
	}

	msg, err := serializeToMessage(record)
	require.NoError(t, err)

	assert.NotContains(t, string(msg.Value), `"band"`)
	assert.NotContains(t, string(msg.Value), `"score_change"`)
}
