// Package notify publishes inventory change events to the downstream
// broadcast channel. Publishing is best-effort: callers log failures and move
// on, the inventory mutation has already committed.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ActionAdded   = "added"
	ActionUpdated = "updated"
)

// Data is the inventory snapshot carried by an event.
type Data struct {
	Barcode     string `json:"barcode,omitempty"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// Event is the message published on every committed inventory change.
type Event struct {
	Action string `json:"action"`
	Data   Data   `json:"data"`
}

// Marshal encodes the event as the wire JSON payload.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to one broker.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// PublishError reports a failed delivery through one driver.
type PublishError struct {
	Driver string
	Topic  string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s to %s: %v", e.Driver, e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// DottedTopic converts an MQTT-style topic into a NATS subject or Kafka topic
// name ("inventory/updates" -> "inventory.updates").
func DottedTopic(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
}

// DashedTopic converts an MQTT-style topic into a Pub/Sub topic ID
// ("inventory/updates" -> "inventory-updates").
func DashedTopic(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", "-")
}
