package metaprovider

import (
	"context"
	"testing"
)

func TestIsNumericOnly(t *testing.T) {
	cases := map[string]bool{
		"4Z8W4fKeB5YxbusRsdQVPb": false,
		"123456789":             true,
		"":                      false,
		"abc123":                false,
		"0":                     true,
	}
	for id, want := range cases {
		if got := IsNumericOnly(id); got != want {
			t.Errorf("IsNumericOnly(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestIsAuthenticatedWithoutTokenIsFalse(t *testing.T) {
	c := New("client-id", "client-secret")
	if c.IsAuthenticated() {
		t.Error("IsAuthenticated should be false before any token has been fetched")
	}
}

func TestGetArtistRejectsNumericID(t *testing.T) {
	c := New("client-id", "client-secret")
	if _, err := c.GetArtist(context.Background(), "123456"); err == nil {
		t.Error("expected error for numeric-only artist id")
	}
}

func TestGetRelatedArtistsRejectsNumericID(t *testing.T) {
	c := New("client-id", "client-secret")
	if _, err := c.GetRelatedArtists(context.Background(), "123456"); err == nil {
		t.Error("expected error for numeric-only artist id")
	}
}
