package event

// Event is an immutable user-activity fact flowing through the engine.
// Attributes is an open bag used by rule criteria and value extraction;
// the struct is never mutated after creation.
type Event struct {
	ID         string                 `json:"id"`
	GameID     int                    `json:"gameId"`
	UserID     int64                  `json:"userId"`
	Type       string                 `json:"eventType"`
	Timestamp  int64                  `json:"ts"` // unix milliseconds
	Source     string                 `json:"source,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Attr returns a raw attribute value and whether it exists.
func (e Event) Attr(key string) (interface{}, bool) {
	if e.Attributes == nil {
		return nil, false
	}
	v, ok := e.Attributes[key]
	return v, ok
}

// AttrString returns a string attribute with a default.
func (e Event) AttrString(key, defaultValue string) string {
	if v, ok := e.Attr(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultValue
}

// AttrFloat returns a numeric attribute with a default. JSON decoding
// produces float64 for all numbers, but int values from in-process
// producers are accepted too.
func (e Event) AttrFloat(key string, defaultValue float64) float64 {
	v, ok := e.Attr(key)
	if !ok {
		return defaultValue
	}
	f, ok := ToFloat(v)
	if !ok {
		return defaultValue
	}
	return f
}

// ToFloat converts the numeric types an attribute bag can carry.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
