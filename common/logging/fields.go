package logging

import "log/slog"

// Field names shared by every log line.
const (
	FieldService   = "service"
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldRoute     = "route"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldPage      = "page"
	FieldViewID    = "view_id"
	FieldOp        = "op"
)

func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Route is the matched route template, e.g. /table-views/{id}.
func Route(route string) slog.Attr {
	return slog.String(FieldRoute, route)
}

func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration is in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns an attribute for err. A nil error yields an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// Page is the resource page a view belongs to (channel, forwards, ...).
func Page(page string) slog.Attr {
	return slog.String(FieldPage, page)
}

func ViewID(id int64) slog.Attr {
	return slog.Int64(FieldViewID, id)
}

func Op(op string) slog.Attr {
	return slog.String(FieldOp, op)
}
