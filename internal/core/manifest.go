package core

import (
	"fmt"

	"github.com/tailscale/hujson"
)

// ManifestFile is the archive-relative path of the application manifest.
const ManifestFile = "dat.json"

// Object is a decoded JSON object that keeps member order.
// Values are string, float64, bool, nil, []any or Object.
type Object []Member

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Lookup returns the value stored under key. Duplicate keys resolve to the
// last occurrence, matching how JSON decoders treat them.
func (o Object) Lookup(key string) (any, bool) {
	for i := len(o) - 1; i >= 0; i-- {
		if o[i].Key == key {
			return o[i].Value, true
		}
	}
	return nil, false
}

// Get is Lookup without the presence flag.
func (o Object) Get(key string) any {
	v, _ := o.Lookup(key)
	return v
}

// Keys returns the distinct member names in first-seen order.
func (o Object) Keys() []string {
	seen := make(map[string]bool, len(o))
	keys := make([]string, 0, len(o))
	for _, m := range o {
		if seen[m.Key] {
			continue
		}
		seen[m.Key] = true
		keys = append(keys, m.Key)
	}
	return keys
}

// ParseManifest decodes dat.json contents. Comments and trailing commas are
// accepted. The document must be a JSON object.
func ParseManifest(data []byte) (Object, error) {
	root, err := hujson.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	obj, ok := decodeValue(root).(Object)
	if !ok {
		return nil, fmt.Errorf("parsing manifest: top-level value is not an object")
	}
	return obj, nil
}

// ParseManifestOrEmpty is ParseManifest with failures degraded to an empty
// manifest. The parse error is still returned for logging.
func ParseManifestOrEmpty(data []byte) (Object, error) {
	obj, err := ParseManifest(data)
	if err != nil {
		return Object{}, err
	}
	return obj, nil
}

func decodeValue(v hujson.Value) any {
	switch t := v.Value.(type) {
	case *hujson.Object:
		obj := make(Object, 0, len(t.Members))
		for _, m := range t.Members {
			obj = append(obj, Member{Key: memberName(m), Value: decodeValue(m.Value)})
		}
		return obj
	case *hujson.Array:
		arr := make([]any, 0, len(t.Elements))
		for _, el := range t.Elements {
			arr = append(arr, decodeValue(el))
		}
		return arr
	case hujson.Literal:
		switch t.Kind() {
		case '"':
			return t.String()
		case '0':
			return t.Float()
		case 't', 'f':
			return t.Bool()
		}
	}
	return nil
}

func memberName(m hujson.ObjectMember) string {
	if lit, ok := m.Name.Value.(hujson.Literal); ok {
		return lit.String()
	}
	return ""
}
