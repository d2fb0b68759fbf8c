package marketdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/quotegate/quotegate/internal/model"
)

// Payload keys of the TIME_SERIES_DAILY response.
const (
	keyErrorMessage = "Error Message"
	keyNote         = "Note"
	keyInformation  = "Information"
	keyDailySeries  = "Time Series (Daily)"

	fieldOpen  = "1. open"
	fieldHigh  = "2. high"
	fieldLow   = "3. low"
	fieldClose = "4. close"
)

// ErrSeriesMissing is returned when the payload has no daily series.
var ErrSeriesMissing = errors.New("time series field missing")

// PayloadError is an error reported by the provider inside a well-formed
// response, such as an unknown symbol.
type PayloadError struct {
	Message string
}

func (e *PayloadError) Error() string {
	return e.Message
}

type rawBar struct {
	date   string
	fields map[string]string
}

// decodeDailySeries reads the payload and returns its bars in document
// order. The provider lists the newest bar first, so document order is
// kept instead of sorting by date. An "Error Message" member stops
// decoding immediately.
func decodeDailySeries(r io.Reader) ([]rawBar, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var bars []rawBar
	var found bool
	var note string

	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		switch key {
		case keyErrorMessage:
			var msg string
			if err := dec.Decode(&msg); err != nil {
				return nil, fmt.Errorf("decode error message: %w", err)
			}
			return nil, &PayloadError{Message: msg}
		case keyDailySeries:
			bars, err = decodeSeries(dec)
			if err != nil {
				return nil, err
			}
			found = true
		case keyNote, keyInformation:
			if err := dec.Decode(&note); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		}
	}

	if !found {
		if note != "" {
			return nil, &PayloadError{Message: note}
		}
		return nil, ErrSeriesMissing
	}

	return bars, nil
}

func decodeSeries(dec *json.Decoder) ([]rawBar, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("malformed time series: %w", err)
	}

	var bars []rawBar
	for dec.More() {
		date, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		var fields map[string]string
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("malformed bar %s: %w", date, err)
		}

		bars = append(bars, rawBar{date: date, fields: fields})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("malformed time series: %w", err)
	}

	return bars, nil
}

// parse converts the string prices of a raw bar.
func (b rawBar) parse() (model.DailyBar, error) {
	bar := model.DailyBar{Date: b.date}

	targets := []struct {
		field string
		dst   *float64
	}{
		{fieldOpen, &bar.Open},
		{fieldHigh, &bar.High},
		{fieldLow, &bar.Low},
		{fieldClose, &bar.Close},
	}

	for _, t := range targets {
		raw, ok := b.fields[t.field]
		if !ok {
			return model.DailyBar{}, fmt.Errorf("bar %s: missing %q", b.date, t.field)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.DailyBar{}, fmt.Errorf("bar %s: invalid %q: %w", b.date, t.field, err)
		}
		*t.dst = v
	}

	return bar, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("read key: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("unexpected token %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
