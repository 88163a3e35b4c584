// Package motion turns PIR sensor edges into a stream of events.
//
// A GPIO bridge watches the sensor line and publishes every edge on
// graylogic/state/{protocol}/{address}:
//
//	{"edge": "rising",  "pin": 17, "timestamp": "..."}   motion detected
//	{"edge": "falling", "pin": 17, "timestamp": "..."}   no motion for a while
//
// MQTTSource decodes those messages and delivers them on a channel until
// the caller's context is done.
package motion
