package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DecodeStrict decodes a JSON document into v, rejecting any field that is not
// part of the target type. Unknown fields are reported as ErrUnknownField.
func DecodeStrict(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			return fmt.Errorf("%w: %s", ErrUnknownField, strings.TrimPrefix(err.Error(), "json: unknown field "))
		}
		return err
	}
	return nil
}

// DecodePatch parses a single patch document.
func DecodePatch(data []byte) (ItemPatch, error) {
	var patch ItemPatch
	if err := DecodeStrict(bytes.NewReader(data), &patch); err != nil {
		return ItemPatch{}, err
	}
	return patch, nil
}

// EncodeItems writes items as an indented JSON array.
func EncodeItems(w io.Writer, items []InventoryItem) error {
	if items == nil {
		items = []InventoryItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
