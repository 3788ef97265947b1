package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expenses/internal/core"
	"expenses/internal/filter"
)

// maxBodyBytes bounds request bodies; entries are a handful of short fields.
const maxBodyBytes = 64 << 10

// bodyFields holds the sanitized scalar fields of a request body.
type bodyFields map[string]string

// readBody decodes a JSON object or a urlencoded form. JSON is chosen by
// content type or by a leading '{'.
func readBody(w http.ResponseWriter, r *http.Request) (bodyFields, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return bodyFields{}, nil
	}

	if raw[0] == '{' || strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return jsonFields(raw)
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}
	return formFields(values), nil
}

func jsonFields(raw []byte) (bodyFields, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if obj == nil {
		return nil, errors.New("invalid JSON body: expected an object")
	}

	out := make(bodyFields, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = sanitizeInput(val)
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = strconv.FormatBool(val)
		}
	}
	return out, nil
}

func formFields(values url.Values) bodyFields {
	out := make(bodyFields, len(values))
	for k := range values {
		out[k] = sanitizeInput(values.Get(k))
	}
	return out
}

// entryInput collects the raw entry fields. Validation is left to the ledger.
func (f bodyFields) entryInput() core.EntryInput {
	return core.EntryInput{
		Amount:   f["amount"],
		Category: f["category"],
		Date:     f["date"],
		Note:     f["note"],
	}
}

// ParseFilter reads category, from and to from the query string.
func ParseFilter(query url.Values) (*filter.Spec, error) {
	f := formFields(query)
	return filter.ParseSpec(f["category"], f["from"], f["to"])
}

var filterKeys = []string{"category", "from", "to"}

// filterQuery re-encodes the non-empty filter parameters of query.
func filterQuery(query url.Values) string {
	kept := url.Values{}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			kept.Set(key, v)
		}
	}
	return kept.Encode()
}

// sanitizeInput drops ASCII control characters except tab, newline and
// carriage return, then trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r < 0x20 || r == 0x7f) && !strings.ContainsRune("\t\n\r", r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
