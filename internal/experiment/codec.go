package experiment

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Codec turns experiment values into bytes and back. Decode must be the
// exact inverse of Encode.
type Codec interface {
	// Name identifies the codec in data file headers.
	Name() string
	// Ext is the data file extension, without a dot.
	Ext() string
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// CBORCodec encodes experiments as deterministic CBOR. Decoding rejects
// fields the target type does not have, so data written by a different
// version of an experiment type fails with ErrSchemaMismatch instead of
// silently dropping values.
type CBORCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBORCodec creates a CBOR codec.
func NewCBORCodec() (*CBORCodec, error) {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	enc, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("creating cbor encoder: %w", err)
	}

	dec, err := cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("creating cbor decoder: %w", err)
	}

	return &CBORCodec{enc: enc, dec: dec}, nil
}

func (c *CBORCodec) Name() string { return "cbor" }

func (c *CBORCodec) Ext() string { return "cbor" }

func (c *CBORCodec) Encode(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c *CBORCodec) Decode(data []byte, v any) error {
	err := c.dec.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var unknownField *cbor.UnknownFieldError
	var typeErr *cbor.UnmarshalTypeError
	if errors.As(err, &unknownField) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return err
}
