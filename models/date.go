package models

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"time"
)

// DateLayout — формат дат платежей и даты открытия кредита в API и БД
const DateLayout = "2006-01-02"

// Date представляет календарную дату без времени (колонка date в PostgreSQL,
// строка "YYYY-MM-DD" в JSON)
type Date struct {
	time.Time
}

// NewDate создает Date из time.Time, отбрасывая время суток
func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate разбирает дату из строки формата "YYYY-MM-DD"
func ParseDate(value string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("неверный формат даты %q: %v", value, err)
	}
	return Date{Time: t}, nil
}

// MarshalJSON сериализует дату в строку "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON разбирает дату из строки "YYYY-MM-DD"
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("дата должна быть строкой формата %q", DateLayout)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value реализует driver.Valuer для записи в БД
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan реализует sql.Scanner для чтения из БД
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("не удалось прочитать дату из значения %T", value)
	}
}

// Before сообщает, что дата d раньше даты other
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}
