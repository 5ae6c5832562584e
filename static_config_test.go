package iox2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iox2/internal/config"
)

func TestStaticConfigWireRoundTripsPubSub(t *testing.T) {
	name, err := NewServiceName("svc")
	require.NoError(t, err)

	cfg := StaticConfig{
		Name: name,
		Pattern: NewPublishSubscribePattern(PublishSubscribeConfig{
			PayloadSize: 16, PayloadAlignment: 8, MaxPublishers: 2, MaxSubscribers: 3, MaxNodes: 1,
		}),
		Attributes: NewAttributeSetBuilder().Define("env", "prod").Build(),
	}

	wire := cfg.toWire("yaml.v3")
	back, err := staticConfigFromWire(wire)
	require.NoError(t, err)

	assert.True(t, cfg.Name.Equal(back.Name))
	assert.True(t, cfg.Pattern.Equal(back.Pattern))
	assert.Equal(t, cfg.Attributes, back.Attributes)
}

func TestStaticConfigWireRoundTripsEvent(t *testing.T) {
	name, err := NewServiceName("svc")
	require.NoError(t, err)

	cfg := StaticConfig{
		Name:    name,
		Pattern: NewEventPattern(EventConfig{MaxNotifiers: 2, MaxListeners: 2, MaxNodes: 1, EventIDMax: 64}),
	}

	wire := cfg.toWire("yaml.v3")
	back, err := staticConfigFromWire(wire)
	require.NoError(t, err)
	assert.True(t, cfg.Pattern.Equal(back.Pattern))
}

func TestStaticConfigFromWireRejectsUnknownPatternKind(t *testing.T) {
	_, err := staticConfigFromWire(config.WireStaticConfig{ServiceName: "svc", PatternKind: "bogus"})
	assert.Error(t, err)
}

func TestStaticConfigFromWireRejectsMissingPayloads(t *testing.T) {
	_, err := staticConfigFromWire(config.WireStaticConfig{ServiceName: "svc", PatternKind: config.PatternKindPublishSubscribe})
	assert.Error(t, err)

	_, err = staticConfigFromWire(config.WireStaticConfig{ServiceName: "svc", PatternKind: config.PatternKindEvent})
	assert.Error(t, err)
}
