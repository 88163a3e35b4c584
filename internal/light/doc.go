// Package light controls a colour light through its protocol bridge.
//
// The controller never talks to a bulb directly. A bridge process (for
// example a LIFX LAN bridge) owns the device and exchanges JSON messages
// with the controller over MQTT:
//
//	graylogic/command/{protocol}/{address}  controller -> bridge
//	graylogic/state/{protocol}/{address}    bridge -> controller (retained)
//
// MQTTClient publishes set_color and read_state commands and caches the
// most recent state message, so State normally answers from memory after a
// short refresh round trip.
//
// Thread Safety:
//   - MQTTClient is safe for concurrent use.
package light
