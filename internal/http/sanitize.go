package http

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const maxBodyBytes = 1 << 20

// Sanitize rewrites JSON request bodies: markup is stripped from string
// values and object keys starting with "$" or containing "." are dropped.
// Passwords are left untouched. Bodies that are not valid JSON pass through
// for the handler to reject.
func Sanitize(next http.Handler) http.Handler {
	policy := bluemonday.StrictPolicy()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || !hasJSONBody(r) {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		_ = r.Body.Close()
		if err != nil {
			newResponder(nil).writeError(r.Context(), w, http.StatusRequestEntityTooLarge, "bad_request", "Request body too large")
			return
		}

		body := raw
		var doc any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if dec.Decode(&doc) == nil {
			if cleaned, err := json.Marshal(sanitizeValue(policy, "", doc)); err == nil {
				body = cleaned
			}
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		r.Header.Set("Content-Length", strconv.Itoa(len(body)))
		next.ServeHTTP(w, r)
	})
}

func hasJSONBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func sanitizeValue(policy *bluemonday.Policy, key string, v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
				continue
			}
			out[k] = sanitizeValue(policy, k, item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = sanitizeValue(policy, key, item)
		}
		return val
	case string:
		if key == "password" {
			return val
		}
		return html.UnescapeString(policy.Sanitize(val))
	default:
		return v
	}
}
