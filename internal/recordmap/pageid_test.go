package recordmap

import (
	"errors"
	"testing"
)

func TestPageID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
		wantErr  error
	}{
		{
			name:     "Page URL with title slug",
			url:      "https://www.notion.so/My-Great-Post-0123456789abcdef0123456789abcdef",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:     "Bare id",
			url:      "https://notion.so/0123456789abcdef0123456789abcdef",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:     "Workspace site URL",
			url:      "https://acme.notion.site/Post-0123456789abcdef0123456789abcdef",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:     "Database URL with view query",
			url:      "https://www.notion.so/0123456789abcdef0123456789abcdef?v=ffffffffffffffffffffffffffffffff",
			expected: "01234567-89ab-cdef-0123-456789abcdef",
		},
		{
			name:    "Empty",
			url:     "",
			wantErr: ErrEmptyURL,
		},
		{
			name:    "Non-Notion host",
			url:     "https://evil.example.com/0123456789abcdef0123456789abcdef",
			wantErr: ErrNotNotionHost,
		},
		{
			name:    "Notion-ish host suffix trick",
			url:     "https://notion.so.evil.example.com/0123456789abcdef0123456789abcdef",
			wantErr: ErrNotNotionHost,
		},
		{
			name:    "File scheme",
			url:     "file:///etc/passwd",
			wantErr: ErrNotNotionHost,
		},
		{
			name:    "No id in URL",
			url:     "https://www.notion.so/about",
			wantErr: ErrNoPageID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PageID(tt.url)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("PageID() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("PageID() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("PageID() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDashID(t *testing.T) {
	if got := DashID("0123456789ABCDEF0123456789abcdef"); got != "01234567-89ab-cdef-0123-456789abcdef" {
		t.Errorf("DashID() = %q", got)
	}
	// already dashed input round-trips
	if got := DashID("01234567-89ab-cdef-0123-456789abcdef"); got != "01234567-89ab-cdef-0123-456789abcdef" {
		t.Errorf("DashID() = %q", got)
	}
	// unexpected length is passed through
	if got := DashID("abc"); got != "abc" {
		t.Errorf("DashID() = %q", got)
	}
}
