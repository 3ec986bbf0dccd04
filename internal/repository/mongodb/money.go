package mongodb

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// money is a price stored as Decimal128. Documents written before prices were
// exact hold doubles or integers; those still decode.
type money decimal.Decimal

func (m money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d := decimal.Decimal(m)
	d128, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return 0, nil, fmt.Errorf("price %s does not fit decimal128: %w", d.String(), err)
	}
	return bson.MarshalValue(d128)
}

func (m *money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Decimal128:
		d128, ok := raw.Decimal128OK()
		if !ok {
			return fmt.Errorf("malformed decimal128 price")
		}
		d, err := decimal.NewFromString(d128.String())
		if err != nil {
			return fmt.Errorf("price %s: %w", d128.String(), err)
		}
		*m = money(d)
	case bsontype.Double:
		*m = money(decimal.NewFromFloat(raw.Double()))
	case bsontype.Int32:
		*m = money(decimal.NewFromInt32(raw.Int32()))
	case bsontype.Int64:
		*m = money(decimal.NewFromInt(raw.Int64()))
	case bsontype.Null:
		*m = money(decimal.Zero)
	default:
		return fmt.Errorf("unsupported price type %s", t)
	}
	return nil
}
