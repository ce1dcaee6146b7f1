package comms

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype under which pixel requests travel.
const CodecName = "gob"

// gobCodec marshals messages with encoding/gob, so scene graphs travel without a schema compiler.
type gobCodec struct{}

func (gobCodec) Marshal(v any) ([]byte, error) {
	writer := bytes.Buffer{}
	if err := gob.NewEncoder(&writer).Encode(v); err != nil {
		return nil, err
	}
	return writer.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(gobCodec{})
}
