package util

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringArrayAsJSON is stored as a JSON array but used as a []string.
type StringArrayAsJSON []string

func (a StringArrayAsJSON) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}

	buf, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}

	return string(buf), nil
}

func (a *StringArrayAsJSON) Scan(src interface{}) error {
	switch src := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		return json.Unmarshal(src, (*[]string)(a))
	case string:
		return json.Unmarshal([]byte(src), (*[]string)(a))
	default:
		return fmt.Errorf("expected []byte or string, got %T", src)
	}
}
