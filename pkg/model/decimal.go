package model

import (
	"fmt"
	"reflect"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Decimal is a money or percentage amount. It is stored as BSON Decimal128
// and rendered with two fractional digits in JSON. Arithmetic is exact.
type Decimal struct {
	decimal.Decimal
}

func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

func DecimalFromInt(v int64) Decimal {
	return Decimal{Decimal: decimal.NewFromInt(v)}
}

func MustDecimal(s string) Decimal {
	return Decimal{Decimal: decimal.RequireFromString(s)}
}

func DecimalPtr(d Decimal) *Decimal {
	return &d
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.StringFixed(2)), nil
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	return d.Decimal.UnmarshalJSON(data)
}

func (d Decimal) MarshalBSONValue() (bsontype.Type, []byte, error) {
	dec, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return 0, nil, fmt.Errorf("failed to convert %s to decimal128: %w", d.String(), err)
	}
	return bson.MarshalValue(dec)
}

func (d *Decimal) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.Decimal128:
		dec, ok := raw.Decimal128OK()
		if !ok {
			return fmt.Errorf("invalid decimal128 value")
		}
		parsed, err := decimal.NewFromString(dec.String())
		if err != nil {
			return fmt.Errorf("failed to parse decimal128 %s: %w", dec.String(), err)
		}
		d.Decimal = parsed
	case bsontype.Double:
		d.Decimal = decimal.NewFromFloat(raw.Double())
	case bsontype.Int32:
		d.Decimal = decimal.NewFromInt32(raw.Int32())
	case bsontype.Int64:
		d.Decimal = decimal.NewFromInt(raw.Int64())
	case bsontype.String:
		parsed, err := decimal.NewFromString(raw.StringValue())
		if err != nil {
			return err
		}
		d.Decimal = parsed
	case bsontype.Null, bsontype.Undefined:
		d.Decimal = decimal.Zero
	default:
		return fmt.Errorf("cannot decode bson type %s into Decimal", t)
	}
	return nil
}

// DecimalValuer lets the validator apply numeric tags (gte, lte) to Decimal fields.
func DecimalValuer(field reflect.Value) any {
	if d, ok := field.Interface().(Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}
