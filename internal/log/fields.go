package log

import "log/slog"

// Attribute keys shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldReferer    = "referer"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldEntryID    = "entry_id"
	FieldRevision   = "revision"
)

// Component names.
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentLedger = "ledger"
	ComponentTrace  = "trace"
	ComponentMirror = "mirror"
)

// Fields accumulates attributes in insertion order. Setting a key twice
// keeps both; handlers print them in order.
type Fields []slog.Attr

func NewFields() Fields {
	return make(Fields, 0, 8)
}

func (f Fields) add(key string, value any) Fields {
	return append(f, slog.Any(key, value))
}

func (f Fields) WithComponent(component string) Fields { return f.add(FieldComponent, component) }
func (f Fields) WithRequestID(id string) Fields        { return f.add(FieldRequestID, id) }
func (f Fields) WithClientIP(ip string) Fields         { return f.add(FieldClientIP, ip) }
func (f Fields) WithOperation(op string) Fields        { return f.add(FieldOperation, op) }
func (f Fields) WithEntryID(id string) Fields          { return f.add(FieldEntryID, id) }
func (f Fields) WithRevision(rev uint64) Fields        { return f.add(FieldRevision, rev) }

// WithError records err's message; a nil error adds nothing.
func (f Fields) WithError(err error) Fields {
	if err == nil {
		return f
	}
	return f.add(FieldError, err.Error())
}

// WithRequest records the request line. Empty user agent and referer are
// left out.
func (f Fields) WithRequest(method, path, query, userAgent, referer string) Fields {
	f = f.add(FieldMethod, method).add(FieldPath, path).add(FieldQuery, query)
	if userAgent != "" {
		f = f.add(FieldUserAgent, userAgent)
	}
	if referer != "" {
		f = f.add(FieldReferer, referer)
	}
	return f
}

func (f Fields) WithResponse(status int, durationMs int64) Fields {
	return f.add(FieldStatusCode, status).add(FieldDuration, durationMs).add(FieldSuccess, status < 400)
}

// Args converts the fields into slog's alternating argument form.
func (f Fields) Args() []any {
	args := make([]any, len(f))
	for i, a := range f {
		args[i] = a
	}
	return args
}
