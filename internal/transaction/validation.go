package transaction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/redmonkez12/mybucks/internal/validation"
)

var ErrInvalidSort = errors.New("sort must be one of latest, oldest, highest, lowest")

const (
	maxNameLen        = 100
	maxDescriptionLen = 500
	maxAbsPrice       = 1_000_000
)

// Accepted datetime layouts, tried in order. Values without a zone are taken as UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// CreateInput is the POST /api/transaction body. Price may be a JSON number or a numeric string.
type CreateInput struct {
	Name        string          `json:"name" example:"coffee"`
	Description string          `json:"description" example:"flat white"`
	Price       json.RawMessage `json:"price" swaggertype:"number" example:"-5"`
	Datetime    string          `json:"datetime" example:"2026-03-01T08:30:00Z"`
}

// NewTransaction is a validated CreateInput
type NewTransaction struct {
	Name        string
	Description string
	Price       float64
	Datetime    time.Time
}

// Validate checks every field and reports all violations at once.
func (in CreateInput) Validate() (NewTransaction, error) {
	var (
		out  NewTransaction
		errs validation.Errors
	)

	out.Name = strings.TrimSpace(in.Name)
	switch n := utf8.RuneCountInString(out.Name); {
	case n == 0:
		errs.Add("name", "name is required", nil)
	case n > maxNameLen:
		errs.Add("name", fmt.Sprintf("name must be at most %d characters", maxNameLen), nil)
	}

	out.Description = strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(out.Description) > maxDescriptionLen {
		errs.Add("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionLen), nil)
	}

	price, msg := parsePrice(in.Price)
	if msg != "" {
		errs.Add("price", msg, rawValue(in.Price))
	}
	out.Price = price

	datetime, msg := parseDatetime(in.Datetime)
	if msg != "" {
		errs.Add("datetime", msg, in.Datetime)
	}
	out.Datetime = datetime

	if err := errs.Err(); err != nil {
		return NewTransaction{}, err
	}
	return out, nil
}

func parsePrice(raw json.RawMessage) (float64, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, "price is required"
	}

	var price float64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, "price must be a number"
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, "price is required"
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, "price must be a number"
		}
		price = p
	} else if err := json.Unmarshal(raw, &price); err != nil {
		return 0, "price must be a number"
	}

	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, "price must be a finite number"
	}
	if math.Abs(price) > maxAbsPrice {
		return 0, fmt.Sprintf("price must be between -%d and %d", maxAbsPrice, maxAbsPrice)
	}
	return price, ""
}

func parseDatetime(s string) (time.Time, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, "datetime is required"
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), ""
		}
	}
	return time.Time{}, "datetime must be an ISO 8601 timestamp"
}

func rawValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// ParseListQuery normalizes raw query parameters. Only an unknown sort is an error;
// unusable limit and offset values fall back to their defaults.
func ParseListQuery(sort, limit, offset string) (ListQuery, error) {
	q := ListQuery{Sort: SortLatest, Limit: DefaultLimit}

	switch s := Sort(strings.TrimSpace(sort)); s {
	case "":
	case SortLatest, SortOldest, SortHighest, SortLowest:
		q.Sort = s
	default:
		return ListQuery{}, ErrInvalidSort
	}

	if n, err := strconv.Atoi(strings.TrimSpace(limit)); err == nil && n > 0 {
		q.Limit = min(n, MaxLimit)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(offset)); err == nil && n > 0 {
		q.Offset = n
	}
	return q, nil
}
