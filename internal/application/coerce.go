package application

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dramseie/repweb-sub001/internal/domain"
)

const datetimeLayout = "2006-01-02 15:04:05"

// coerceValue turns a raw (usually JSON-decoded) input into the typed Value
// for the attribute's declared data type. Every allowed kind is matched
// explicitly; an unknown kind is a validation error, never a silent skip.
func coerceValue(dt domain.DataType, raw any) (domain.Value, error) {
	switch dt {
	case domain.DataTypeString, domain.DataTypeText, domain.DataTypeIP, domain.DataTypeCIDR, domain.DataTypeReference:
		return domain.TextValue(dt, stringify(raw)), nil

	case domain.DataTypeInteger:
		switch v := raw.(type) {
		case int:
			return domain.IntValue(int64(v)), nil
		case int64:
			return domain.IntValue(v), nil
		case float64:
			return domain.IntValue(int64(v)), nil
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return domain.Value{}, domain.Validationf("value %q is not an integer", v.String())
			}
			return domain.IntValue(n), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return domain.Value{}, domain.Validationf("value %q is not an integer", v)
			}
			return domain.IntValue(n), nil
		}
		return domain.Value{}, domain.Validationf("value %v is not an integer", raw)

	case domain.DataTypeDecimal:
		switch v := raw.(type) {
		case int:
			return domain.FloatValue(float64(v)), nil
		case int64:
			return domain.FloatValue(float64(v)), nil
		case float64:
			return domain.FloatValue(v), nil
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return domain.Value{}, domain.Validationf("value %q is not a decimal", v.String())
			}
			return domain.FloatValue(f), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return domain.Value{}, domain.Validationf("value %q is not a decimal", v)
			}
			return domain.FloatValue(f), nil
		}
		return domain.Value{}, domain.Validationf("value %v is not a decimal", raw)

	case domain.DataTypeBoolean:
		return domain.BoolValue(truthy(raw)), nil

	case domain.DataTypeDatetime:
		switch v := raw.(type) {
		case string:
			return domain.TextValue(dt, v), nil
		case time.Time:
			return domain.TextValue(dt, v.Format(datetimeLayout)), nil
		}
		return domain.Value{}, domain.Validationf("value %v is not a datetime", raw)

	case domain.DataTypeJSON:
		if s, ok := raw.(string); ok {
			return domain.TextValue(dt, s), nil
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return domain.Value{}, domain.Validationf("value is not JSON-encodable: %v", err)
		}
		return domain.TextValue(dt, string(b)), nil
	}
	return domain.Value{}, domain.Validationf("unknown data type %q", dt)
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func truthy(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case string:
		s := strings.TrimSpace(strings.ToLower(v))
		return s != "" && s != "0" && s != "false"
	}
	return true
}
