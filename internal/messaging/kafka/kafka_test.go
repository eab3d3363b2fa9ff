package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaramaConfigs(t *testing.T) {
	pub := publisherConfig()
	assert.Equal(t, clientID, pub.ClientID)
	assert.True(t, pub.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForLocal, pub.Producer.RequiredAcks)

	sub := subscriberConfig()
	assert.Equal(t, clientID, sub.ClientID)
	assert.Equal(t, sarama.OffsetNewest, sub.Consumer.Offsets.Initial)
}

func TestNewBus_RequiresBrokers(t *testing.T) {
	_, err := NewBus(Config{}, watermill.NopLogger{})
	require.Error(t, err)
}
