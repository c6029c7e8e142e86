package search

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/bdpiprava/alertsearch/maps"
)

// Dotted paths of the event fields the analytics layer reads
const (
	FieldTimestamp       = "timestamp"
	FieldAgentID         = "agent.id"
	FieldAgentName       = "agent.name"
	FieldAgentIP         = "agent.ip"
	FieldRuleID          = "rule.id"
	FieldRuleLevel       = "rule.level"
	FieldRuleDescription = "rule.description"
	FieldFullLog         = "full_log"
	FieldDecoderName     = "decoder.name"
)

// Event is a single alert document. It keeps the loosely structured shape it has on the wire,
// every field is optional and unknown fields are carried through untouched.
//
// Accessors never default: a missing, null or wrongly typed field is reported with ok == false.
type Event map[string]any

// Lookup returns the raw value at the dotted path
func (e Event) Lookup(path string) (any, bool) {
	return maps.Lookup(e, path)
}

// Set writes the value at the dotted path
func (e Event) Set(path string, value any) error {
	return maps.Set(e, path, value)
}

// Text returns the value at the path if it is a string
func (e Event) Text(path string) (string, bool) {
	value, ok := e.Lookup(path)
	if !ok {
		return "", false
	}

	str, ok := value.(string)
	return str, ok
}

// Number returns the value at the path if it is numeric
func (e Event) Number(path string) (float64, bool) {
	value, ok := e.Lookup(path)
	if !ok {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Integer returns the value at the path if it is a whole number
func (e Event) Integer(path string) (int64, bool) {
	f, ok := e.Number(path)
	if !ok || math.Trunc(f) != f || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// Time returns the value at the path parsed as an RFC 3339 timestamp
func (e Event) Time(path string) (time.Time, bool) {
	str, ok := e.Text(path)
	if !ok {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Timestamp returns the time the alert was raised
func (e Event) Timestamp() (time.Time, bool) {
	return e.Time(FieldTimestamp)
}

// AgentID returns the identifier of the agent that reported the alert
func (e Event) AgentID() (string, bool) {
	return e.Text(FieldAgentID)
}

// AgentName returns the name of the agent that reported the alert
func (e Event) AgentName() (string, bool) {
	return e.Text(FieldAgentName)
}

// AgentIP returns the address of the agent that reported the alert
func (e Event) AgentIP() (string, bool) {
	return e.Text(FieldAgentIP)
}

// RuleID returns the rule identifier. Numeric ids are rendered in decimal.
func (e Event) RuleID() (string, bool) {
	if id, ok := e.Text(FieldRuleID); ok {
		return id, true
	}

	id, ok := e.Integer(FieldRuleID)
	if !ok {
		return "", false
	}
	return strconv.FormatInt(id, 10), true
}

// RuleLevel returns the severity of the rule that fired
func (e Event) RuleLevel() (int64, bool) {
	return e.Integer(FieldRuleLevel)
}

// RuleDescription returns the human readable rule description
func (e Event) RuleDescription() (string, bool) {
	return e.Text(FieldRuleDescription)
}

// FullLog returns the raw log line the alert was decoded from
func (e Event) FullLog() (string, bool) {
	return e.Text(FieldFullLog)
}

// DecoderName returns the name of the decoder that parsed the log line
func (e Event) DecoderName() (string, bool) {
	return e.Text(FieldDecoderName)
}
