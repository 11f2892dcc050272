package urlutil

import "testing"

func TestParseQuery(t *testing.T) {
	params := ParseQuery("https://host/cb?code=abc&state=xyz&empty=")
	if params["code"] != "abc" || params["state"] != "xyz" {
		t.Fatalf("params: %v", params)
	}
	if _, ok := params["empty"]; !ok {
		t.Error("empty-valued key dropped")
	}
}

func TestParseQueryInvalidURL(t *testing.T) {
	if params := ParseQuery("://not-a-url"); len(params) != 0 {
		t.Fatalf("params: %v", params)
	}
}

func TestParseFragment(t *testing.T) {
	params := ParseFragment("https://host/cb#access_token=tok&expires_in=86400&user_id=42")
	if params["access_token"] != "tok" || params["expires_in"] != "86400" || params["user_id"] != "42" {
		t.Fatalf("params: %v", params)
	}
}

func TestParseFragmentAbsent(t *testing.T) {
	if params := ParseFragment("https://host/cb?code=abc"); len(params) != 0 {
		t.Fatalf("params: %v", params)
	}
}
