package gateway

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Payload is a request body. It is sent as JSON unless it holds a *File.
// Values may be scalars, *File, JSONString, nested maps (map[string]any,
// map[string]string, Payload) and slices of those ([]any, []string,
// []*File, []map[string]any). Any other value is encoded with fmt.
type Payload map[string]any

// Form is a request body that is always sent as multipart/form-data, with
// or without files.
type Form map[string]any

// File is an upload part.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// JSONString is a value sent in a form as its JSON encoding, e.g. a list of
// syllabus topics.
type JSONString struct {
	Value any
}

func containsFile(v any) bool {
	switch t := v.(type) {
	case *File:
		return t != nil
	case Payload:
		for _, item := range t {
			if containsFile(item) {
				return true
			}
		}
	case Form:
		for _, item := range t {
			if containsFile(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range t {
			if containsFile(item) {
				return true
			}
		}
	case []any:
		for _, item := range t {
			if containsFile(item) {
				return true
			}
		}
	case []map[string]any:
		for _, item := range t {
			if containsFile(item) {
				return true
			}
		}
	case []*File:
		for _, item := range t {
			if item != nil {
				return true
			}
		}
	}
	return false
}

type formField struct {
	key   string
	value any
}

// flatten turns nested maps into bracket keys (instructor[name]), slices of
// scalars into repeated keys and slices of maps into indexed keys
// (modules[0][title]), in key order.
func flatten(prefix string, v any, out []formField) []formField {
	switch t := v.(type) {
	case nil:
		return out
	case Payload:
		return flattenMap(prefix, t, out)
	case Form:
		return flattenMap(prefix, t, out)
	case map[string]any:
		return flattenMap(prefix, t, out)
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return flattenMap(prefix, m, out)
	case []any:
		for i, item := range t {
			if isMap(item) {
				out = flatten(fmt.Sprintf("%s[%d]", prefix, i), item, out)
				continue
			}
			out = flatten(prefix, item, out)
		}
		return out
	case []map[string]any:
		for i, item := range t {
			out = flattenMap(fmt.Sprintf("%s[%d]", prefix, i), item, out)
		}
		return out
	case []string:
		for _, item := range t {
			out = append(out, formField{key: prefix, value: item})
		}
		return out
	case []*File:
		for _, item := range t {
			out = flatten(prefix, item, out)
		}
		return out
	case *File:
		if t == nil {
			return out
		}
	}
	return append(out, formField{key: prefix, value: v})
}

func isMap(v any) bool {
	switch v.(type) {
	case map[string]any, map[string]string, Payload, Form:
		return true
	}
	return false
}

func flattenMap(prefix string, m map[string]any, out []formField) []formField {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "[" + k + "]"
		}
		out = flatten(key, m[k], out)
	}
	return out
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(p map[string]any) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range flattenMap("", p, nil) {
		if err := writeField(w, field); err != nil {
			return nil, "", fmt.Errorf("encode form field %s: %w", field.key, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeField(w *multipart.Writer, field formField) error {
	switch v := field.value.(type) {
	case *File:
		name := v.Name
		if name == "" {
			name = "blob"
		}
		contentType := v.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(field.key), quoteEscaper.Replace(name)))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return err
		}
		_, err = part.Write(v.Data)
		return err
	case JSONString:
		encoded, err := json.Marshal(v.Value)
		if err != nil {
			return err
		}
		return w.WriteField(field.key, string(encoded))
	case string:
		return w.WriteField(field.key, v)
	case fmt.Stringer:
		return w.WriteField(field.key, v.String())
	default:
		return w.WriteField(field.key, fmt.Sprint(v))
	}
}
