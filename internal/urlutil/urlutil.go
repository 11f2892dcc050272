// Package urlutil parses query and fragment parameters out of URLs that
// OAuth providers send users back with.
package urlutil

import "net/url"

// ParseQuery returns the query parameters of rawURL, first value wins.
func ParseQuery(rawURL string) map[string]string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return map[string]string{}
	}
	return flatten(u.Query())
}

// ParseFragment parses the URL fragment as if it were a query string.
// Implicit-grant providers deliver token material this way.
func ParseFragment(rawURL string) map[string]string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return map[string]string{}
	}
	values, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return map[string]string{}
	}
	return flatten(values)
}

func flatten(values url.Values) map[string]string {
	params := make(map[string]string, len(values))
	for key, list := range values {
		if len(list) > 0 {
			params[key] = list[0]
		}
	}
	return params
}
