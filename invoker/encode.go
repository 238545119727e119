package invoker

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	rest "github.com/go-sif/sif-rest"
	jsoniter "github.com/json-iterator/go"
)

var (
	placeholder = regexp.MustCompile(`\{([^{}]+)\}`)
	bodyJSON    = jsoniter.ConfigCompatibleWithStandardLibrary
)

// expandTemplate replaces {name} placeholders in a url template with the escaped
// values of row, returning the expanded url and the set of consumed parameter names.
// Placeholders without a matching parameter are left untouched.
func expandTemplate(template string, row rest.InputRow) (string, map[string]bool) {
	consumed := make(map[string]bool)
	expanded := placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := row[name]
		if !ok {
			return m
		}
		consumed[name] = true
		return url.PathEscape(formatValue(v))
	})
	return expanded, consumed
}

// formatValue renders a row value as it appears in a query string or form
func formatValue(v interface{}) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(tv), 'f', -1, 32)
	default:
		return fmt.Sprint(tv)
	}
}

// remainingValues returns the parameters of row which were not consumed by the url template
func remainingValues(row rest.InputRow, consumed map[string]bool) map[string]interface{} {
	res := make(map[string]interface{}, len(row))
	for k, v := range row {
		if !consumed[k] {
			res[k] = v
		}
	}
	return res
}

// appendQuery adds params to the query string of rawURL, keeping any query already present
func appendQuery(rawURL string, params map[string]interface{}) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if len(params) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, formatValue(v))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// encodeBody serializes params into a POST body, returning the body and its content type
func encodeBody(params map[string]interface{}, encoding rest.BodyEncoding) ([]byte, string, error) {
	switch encoding {
	case rest.FormEncoding:
		form := url.Values{}
		for k, v := range params {
			form.Set(k, formatValue(v))
		}
		return []byte(form.Encode()), "application/x-www-form-urlencoded", nil
	case rest.JSONEncoding, "":
		b, err := bodyJSON.Marshal(params)
		if err != nil {
			return nil, "", err
		}
		return b, "application/json", nil
	default:
		return nil, "", fmt.Errorf("Unknown body encoding %s", encoding)
	}
}
