// Package marshal defines the serialization boundary between models and the
// persistent cache tiers. The cache core never inspects model contents; it
// only hands them to a Marshaller at the store boundary.
package marshal

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Marshaller converts models to and from their stored byte representation.
type Marshaller interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON is the default Marshaller, storing models as JSON text.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Raw passes byte slices through untouched. Meant for stores holding raw
// downloaded content rather than structured models.
type Raw struct{}

func (Raw) Marshal(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("marshal: %T is not a []byte", v)
	}
	return b, nil
}

func (Raw) Unmarshal(data []byte, v any) error {
	p, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("marshal: %T is not a *[]byte", v)
	}
	*p = data
	return nil
}

// Proto is a Marshaller for models that are protobuf messages. Values passed
// to it must implement proto.Message.
type Proto struct{}

func (Proto) Marshal(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("marshal: %T is not a proto.Message", v)
	}
	return proto.Marshal(msg)
}

func (Proto) Unmarshal(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("marshal: %T is not a proto.Message", v)
	}
	return proto.Unmarshal(data, msg)
}
