package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// jsonbBytes coerces a scanned JSONB value into raw bytes.
func jsonbBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, errors.New("unsupported type for JSONB column")
	}
}

// Scan implements sql.Scanner so Results can live in a JSONB column.
func (r *Results) Scan(value any) error {
	data, err := jsonbBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*r = nil
		return nil
	}
	return json.Unmarshal(data, r)
}

// Value implements driver.Valuer for the Results JSONB column.
func (r Results) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner so Summary can live in a JSONB column.
func (s *Summary) Scan(value any) error {
	data, err := jsonbBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, s)
}

// Value implements driver.Valuer for the Summary JSONB column.
func (s Summary) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// StringList is a JSONB-backed list of strings (frontier links, page links).
type StringList []string

// Scan implements sql.Scanner for StringList.
func (l *StringList) Scan(value any) error {
	data, err := jsonbBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// Value implements driver.Valuer for StringList.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}
