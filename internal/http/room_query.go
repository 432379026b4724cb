package http

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/persistence"
)

var roomQueryOps = map[string]persistence.FilterOp{
	"gt":  persistence.OpGt,
	"gte": persistence.OpGte,
	"lt":  persistence.OpLt,
	"lte": persistence.OpLte,
	"in":  persistence.OpIn,
}

// parseRoomQuery turns ?select=name,tel&sort=-name&page=2&limit=10&name[in]=A,B
// into listing parameters. Field names are checked by the room service.
func parseRoomQuery(values url.Values) (application.ListRoomsParams, error) {
	var params application.ListRoomsParams
	vErr := &application.ValidationError{}
	addErr := func(field, msg string) {
		if vErr.FieldErrors == nil {
			vErr.FieldErrors = map[string]string{}
		}
		vErr.FieldErrors[field] = msg
	}

	if raw := values.Get("select"); raw != "" {
		params.Select = splitList(raw)
	}
	if raw := values.Get("sort"); raw != "" {
		for _, key := range splitList(raw) {
			desc := strings.HasPrefix(key, "-")
			params.Sort = append(params.Sort, persistence.SortField{Field: strings.TrimPrefix(key, "-"), Desc: desc})
		}
	}
	for _, name := range []string{"page", "limit"} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			addErr(name, fmt.Sprintf("%s must be a positive integer", name))
			continue
		}
		if name == "page" {
			params.Page = n
		} else {
			params.Limit = n
		}
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch key {
		case "select", "sort", "page", "limit":
			continue
		}
		field, op, ok := splitFilterKey(key)
		if !ok {
			addErr(key, fmt.Sprintf("unsupported filter %q", key))
			continue
		}
		for _, raw := range values[key] {
			filter := persistence.RoomFilter{Field: field, Op: op, Values: []string{raw}}
			if op == persistence.OpIn {
				filter.Values = splitList(raw)
			}
			params.Filters = append(params.Filters, filter)
		}
	}

	if len(vErr.FieldErrors) > 0 {
		vErr.Reason = application.ReasonInvalidInput
		vErr.Message = "Invalid query parameters"
		return application.ListRoomsParams{}, vErr
	}
	return params, nil
}

// splitFilterKey splits "field[op]" or a bare "field" (equality).
func splitFilterKey(key string) (string, persistence.FilterOp, bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, persistence.OpEq, key != ""
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", false
	}
	op, ok := roomQueryOps[key[open+1:len(key)-1]]
	if !ok {
		return "", "", false
	}
	return key[:open], op, true
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
