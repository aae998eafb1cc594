package cartstore

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// encodeCart serializes c as a JSON array of line items.
func encodeCart(c Cart) ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encode cart")
	}
	return data, nil
}

// decodeCart parses a snapshot written by encodeCart.
func decodeCart(data []byte) (Cart, error) {
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	if c == nil {
		return Cart{}, nil
	}
	return normalize(c), nil
}
