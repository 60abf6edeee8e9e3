package util

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TimeAsTimestamp is stored as an UNIX timestamp in milliseconds but used as
// a time.Time.
type TimeAsTimestamp time.Time

func NewTimeAsTimestamp() TimeAsTimestamp {
	return TimeAsTimestamp(time.Now().Truncate(time.Millisecond))
}

func (t TimeAsTimestamp) Value() (driver.Value, error) {
	return driver.Value(time.Time(t).UnixMilli()), nil
}

func (t TimeAsTimestamp) Time() time.Time {
	return time.Time(t)
}

func (t *TimeAsTimestamp) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		tmp, err := strconv.ParseInt(string(src), 10, 64)
		if err != nil {
			return err
		}

		*t = TimeAsTimestamp(time.UnixMilli(tmp))
	case int64:
		*t = TimeAsTimestamp(time.UnixMilli(src))
	default:
		return fmt.Errorf("expected []byte or int64, got %T", src)
	}

	return nil
}

func (t TimeAsTimestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time().UTC().Format(time.RFC3339Nano))
}

func (t *TimeAsTimestamp) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	tmp, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return err
	}

	*t = TimeAsTimestamp(tmp)
	return nil
}
