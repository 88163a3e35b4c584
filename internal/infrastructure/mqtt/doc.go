// Package mqtt provides MQTT client connectivity for the presence controller.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions, restored after reconnect
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The controller never talks to hardware directly. A lighting bridge owns
// the bulb and a GPIO bridge owns the motion sensor; both sit on the broker:
//
//	GPIO bridge → graylogic/state/gpio/{pin} → controller
//	controller → graylogic/command/{proto}/{addr} → lighting bridge
//	lighting bridge → graylogic/state/{proto}/{addr} (retained) → controller
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials come from GRAYLOGIC_MQTT_USERNAME / GRAYLOGIC_MQTT_PASSWORD
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.BridgeCommand("lifx", "d073d5000001")
//	err = client.Publish(topic, []byte(`{"command":"read_state"}`), 1, false)
package mqtt
