package transport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/composite/domain"
)

// ParseProductID converts a path or query key into a product id. Keys that
// are not integers are malformed requests; range checks belong to the use cases.
func ParseProductID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.NewError(domain.ErrCodeBadRequest, "Required productId is missing")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.WrapError(domain.ErrCodeBadRequest, fmt.Sprintf("Type mismatch for productId: %q", raw), err)
	}
	return id, nil
}

// QueryInt reads an optional integer query parameter.
func QueryInt(args *fasthttp.Args, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(string(args.Peek(name)))
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.WrapError(domain.ErrCodeBadRequest, fmt.Sprintf("Type mismatch for %s: %q", name, raw), err)
	}
	return val, nil
}

// ParseIfMatch reads the expected entity version from an If-Match header
// value. An absent header or "*" matches any version.
func ParseIfMatch(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return domain.AnyVersion, nil
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	version, err := strconv.Atoi(raw)
	if err != nil || version < 0 {
		return 0, domain.NewError(domain.ErrCodeBadRequest, fmt.Sprintf("Malformed If-Match header: %q", raw))
	}
	return version, nil
}

// ETag renders an entity version for the ETag header.
func ETag(version int) string {
	return strconv.Quote(strconv.Itoa(version))
}
