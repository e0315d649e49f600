package domain

// DataType enumerates the storable attribute kinds. Each kind maps to its own
// physical value table.
type DataType string

const (
	DataTypeString    DataType = "string"
	DataTypeText      DataType = "text"
	DataTypeInteger   DataType = "integer"
	DataTypeDecimal   DataType = "decimal"
	DataTypeBoolean   DataType = "boolean"
	DataTypeDatetime  DataType = "datetime"
	DataTypeJSON      DataType = "json"
	DataTypeReference DataType = "reference"
	DataTypeIP        DataType = "ip"
	DataTypeCIDR      DataType = "cidr"
)

// DataTypes lists every allowed kind in declaration order.
var DataTypes = []DataType{
	DataTypeString,
	DataTypeText,
	DataTypeInteger,
	DataTypeDecimal,
	DataTypeBoolean,
	DataTypeDatetime,
	DataTypeJSON,
	DataTypeReference,
	DataTypeIP,
	DataTypeCIDR,
}

func (d DataType) Valid() bool {
	switch d {
	case DataTypeString, DataTypeText, DataTypeInteger, DataTypeDecimal,
		DataTypeBoolean, DataTypeDatetime, DataTypeJSON, DataTypeReference,
		DataTypeIP, DataTypeCIDR:
		return true
	}
	return false
}

// Value is the tagged union carried between the service layer and the typed
// value tables. Kind selects which payload field is meaningful: Int for
// integer, Float for decimal, Bool for boolean, Text for everything else
// (string, text, ip, cidr, datetime, json, reference).
type Value struct {
	Kind  DataType
	Text  string
	Int   int64
	Float float64
	Bool  bool
}

func TextValue(kind DataType, s string) Value { return Value{Kind: kind, Text: s} }

func IntValue(v int64) Value { return Value{Kind: DataTypeInteger, Int: v} }

func FloatValue(v float64) Value { return Value{Kind: DataTypeDecimal, Float: v} }

func BoolValue(v bool) Value { return Value{Kind: DataTypeBoolean, Bool: v} }

// Native returns the payload as a plain Go value for JSON output.
func (v Value) Native() any {
	switch v.Kind {
	case DataTypeInteger:
		return v.Int
	case DataTypeDecimal:
		return v.Float
	case DataTypeBoolean:
		return v.Bool
	default:
		return v.Text
	}
}

// ValueWrite is one pending slot write for an entity.
type ValueWrite struct {
	AttributeID uint
	Slot        int
	Value       Value
}
