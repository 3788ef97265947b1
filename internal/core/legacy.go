package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SetStoredAmount decodes an amount read from a snapshot. Blank text is 0.
// Text that is not a finite number decodes to NaN and is kept verbatim so the
// next save writes it back unchanged.
func (e *Entry) SetStoredAmount(text string) {
	e.amountText = ""
	t := strings.TrimSpace(text)
	if t == "" {
		e.Amount = 0
		return
	}
	f, err := strconv.ParseFloat(t, 64)
	if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		e.Amount = Amount(f)
		return
	}
	e.Amount = Amount(math.NaN())
	e.amountText = text
}

// StoredAmount is the text a snapshot should hold for the amount: the
// verbatim legacy value when there is one.
func (e Entry) StoredAmount() string {
	if e.amountText != "" {
		return e.amountText
	}
	return strconv.FormatFloat(float64(e.Amount), 'g', -1, 64)
}

// LegacyAmount returns the verbatim text of a malformed persisted amount.
func (e Entry) LegacyAmount() (string, bool) {
	return e.amountText, e.amountText != ""
}

// UnmarshalJSON decodes an entry without failing on scalar fields of the
// wrong type. Numbers and booleans in id, category or note become their text.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	var aux struct {
		plain
		ID     json.RawMessage `json:"id"`
		Amount json.RawMessage `json:"amount"`
		Note   json.RawMessage `json:"note"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*e = Entry(aux.plain)
	e.ID = scalarText(aux.ID)
	e.Note = scalarText(aux.Note)

	var a Amount
	if len(aux.Amount) > 0 {
		_ = a.UnmarshalJSON(aux.Amount)
	}
	e.Amount = a
	if f := float64(a); math.IsNaN(f) || math.IsInf(f, 0) {
		e.amountText = rawText(aux.Amount)
	}
	return nil
}

// MarshalJSON writes a kept legacy amount back as its original text.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	if e.amountText == "" {
		return json.Marshal(plain(e))
	}
	return json.Marshal(struct {
		plain
		Amount string `json:"amount"`
	}{plain(e), e.amountText})
}

// UnmarshalJSON accepts any scalar: numbers and booleans keep their text,
// null and composite values decode to "".
func (c *Category) UnmarshalJSON(data []byte) error {
	*c = Category(scalarText(data))
	return nil
}

func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	}
	return string(raw)
}

// rawText is the string form of a JSON token, unquoted when it is a string.
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
