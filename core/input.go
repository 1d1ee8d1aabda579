package core

// Input is the structured input payload of an assignment: named parameters
// the target capability interprets against its declared schema.
type Input map[string]any

// String returns the named parameter as a string.
func (in Input) String(key string) (string, bool) {
	v, ok := in[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the named parameter as an int, accepting float64 values that
// arrived through JSON decoding.
func (in Input) Int(key string) (int, bool) {
	v, ok := in[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Clone returns a shallow copy of the parameter map. Values are shared;
// capabilities treat inputs as read-only.
func (in Input) Clone() Input {
	if in == nil {
		return nil
	}
	cp := make(Input, len(in))
	for k, v := range in {
		cp[k] = v
	}
	return cp
}
