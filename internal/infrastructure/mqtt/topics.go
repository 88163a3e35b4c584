package mqtt

import "fmt"

// Topic prefixes.
//
// Bridge topics use the flat scheme graylogic/{category}/{protocol}/{address},
// shared by the lighting bridge and the GPIO bridge that reports motion.
const (
	// TopicPrefixBridge is the base for all bridge topics.
	TopicPrefixBridge = "graylogic"

	// TopicPrefixCore is the base for topics owned by this controller.
	TopicPrefixCore = "graylogic/core"

	// TopicPrefixSystem is the base for client status topics.
	TopicPrefixSystem = "graylogic/system"
)

// Core event types published under Topics.CoreEvent.
const (
	EventPresenceAction = "presence_action"
	EventThermalGesture = "thermal_gesture"
)

// Topics provides builders for the controller's MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.BridgeState("lifx", "d073d5000001")
//	// Returns: "graylogic/state/lifx/d073d5000001"
type Topics struct{}

// BridgeState returns the topic a bridge publishes device state on.
// Light bridges retain it; the GPIO bridge publishes motion edges on it.
//
// Example: graylogic/state/gpio/gpio17
func (Topics) BridgeState(protocol, address string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefixBridge, protocol, address)
}

// BridgeCommand returns the topic for commands to a bridge device.
//
// Example: graylogic/command/lifx/d073d5000001
func (Topics) BridgeCommand(protocol, address string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefixBridge, protocol, address)
}

// PresenceCommand returns the topic accepting manual commands
// (start, hold, release, note) for one presence controller.
//
// Example: graylogic/core/presence/hallway/command
func (Topics) PresenceCommand(deviceID string) string {
	return fmt.Sprintf("%s/presence/%s/command", TopicPrefixCore, deviceID)
}

// PresenceState returns the retained topic carrying the controller's
// running flag and timeout.
//
// Example: graylogic/core/presence/hallway/state
func (Topics) PresenceState(deviceID string) string {
	return fmt.Sprintf("%s/presence/%s/state", TopicPrefixCore, deviceID)
}

// CoreEvent returns the topic for controller events.
//
// Example: graylogic/core/event/presence_action
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// ClientStatus returns the retained availability topic of an MQTT client.
//
// Example: graylogic/system/graylogic-presence/status
func (Topics) ClientStatus(clientID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixSystem, clientID)
}

// AllPresenceCommands matches the command topic of every controller.
//
// Pattern: graylogic/core/presence/+/command
func (Topics) AllPresenceCommands() string {
	return fmt.Sprintf("%s/presence/+/command", TopicPrefixCore)
}

// AllCoreEvents matches every controller event.
//
// Pattern: graylogic/core/event/+
func (Topics) AllCoreEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefixCore)
}
