package flight

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// The calendar picker sends YYYY-MM-DD; the flight API expects MM-DD-YYYY.
var isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// oraclePathPattern matches a .../getflightdata endpoint, optionally already
// carrying a FlightType/FlightDate/PaymentType suffix.
var oraclePathPattern = regexp.MustCompile(`(?i)^(.*/getflightdata)(?:/[^/]+/[^/]+/[^/]+)?$`)

// ToOracleDate rewrites an ISO date to MM-DD-YYYY and leaves anything else untouched.
func ToOracleDate(date string) string {
	match := isoDatePattern.FindStringSubmatch(date)
	if match == nil {
		return date
	}
	year, month, day := match[1], match[2], match[3]
	return fmt.Sprintf("%s-%s-%s", month, day, year)
}

// BuildRequestURL encodes the lookup into baseURL. A getflightdata endpoint
// takes the values as path segments (replacing any previous ones and
// dropping the query); any other endpoint takes them as query parameters.
func BuildRequestURL(baseURL, flightType, flightDate, paymentType string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	if prefix, ok := oraclePrefix(parsed.EscapedPath()); ok {
		segments := []string{
			escapeSegment(flightType),
			escapeSegment(flightDate),
			escapeSegment(paymentType),
		}
		rawPath := prefix + "/" + strings.Join(segments, "/")
		path, err := url.PathUnescape(rawPath)
		if err != nil {
			return "", fmt.Errorf("invalid path: %w", err)
		}
		parsed.Path = path
		parsed.RawPath = rawPath
		parsed.RawQuery = ""
		parsed.ForceQuery = false
		return parsed.String(), nil
	}

	query := parsed.Query()
	query.Set("FlightType", flightType)
	query.Set("FlightDate", flightDate)
	query.Set("PaymentType", paymentType)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// escapeSegment percent-encodes everything but unreserved characters, so
// sub-delimiters such as & = + : never reach the path unescaped.
func escapeSegment(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

// oraclePrefix works on the escaped path so the returned prefix can be
// joined with escaped segments.
func oraclePrefix(path string) (string, bool) {
	trimmed := strings.TrimRight(path, "/")
	match := oraclePathPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return "", false
	}
	return match[1], true
}
