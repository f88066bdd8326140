// Package problem writes RFC 7807 problem documents.
package problem

import (
	"net/http"

	"github.com/go-faster/jx"
)

// ContentType is the media type of problem documents.
const ContentType = "application/problem+json"

// Details is a problem document.
type Details struct {
	Title    string
	Status   int
	Detail   string
	Code     string
	Instance string
}

// New returns Details with the standard title for status.
func New(status int, code, detail string) Details {
	return Details{
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   code,
	}
}

// Encode writes d as a JSON object.
func (d Details) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("title", func(e *jx.Encoder) { e.Str(d.Title) })
		e.Field("status", func(e *jx.Encoder) { e.Int(d.Status) })
		if d.Detail != "" {
			e.Field("detail", func(e *jx.Encoder) { e.Str(d.Detail) })
		}
		if d.Code != "" {
			e.Field("code", func(e *jx.Encoder) { e.Str(d.Code) })
		}
		if d.Instance != "" {
			e.Field("instance", func(e *jx.Encoder) { e.Str(d.Instance) })
		}
	})
}

// Write sends d as the response. Instance defaults to the request path.
func Write(w http.ResponseWriter, r *http.Request, d Details) {
	if d.Instance == "" && r != nil {
		d.Instance = r.URL.Path
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	d.Encode(e)

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(d.Status)
	_, _ = w.Write(e.Bytes())
}
