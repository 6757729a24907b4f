package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

const maxBodySize = 64 << 10

// decodeObject decodes a JSON object request body field by field.
func decodeObject(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	d := jx.Decode(http.MaxBytesReader(w, r.Body, maxBodySize), 4096)
	if err := d.Obj(field); err != nil {
		return errors.Wrap(err, "decode request")
	}
	return nil
}

// decodeStr reads a string field. null leaves v unchanged.
func decodeStr(d *jx.Decoder, v *string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return err
	}
	*v = s
	return nil
}

// decodeBool reads a boolean field. null leaves v unchanged.
func decodeBool(d *jx.Decoder, v *bool) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	b, err := d.Bool()
	if err != nil {
		return err
	}
	*v = b
	return nil
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the failure indicator {"error":true,"message":...}.
func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	encodeFailure(&e, message)
	writeJSON(w, status, &e)
}

func encodeFailure(e *jx.Encoder, message string) {
	e.ObjStart()
	e.FieldStart("message")
	e.Str(message)
	e.FieldStart("error")
	e.Bool(true)
	e.ObjEnd()
}
