package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilterValidation(t *testing.T) {
	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "valid subject match",
			expr:      `subject.contains("Transport")`,
			wantError: false,
		},
		{
			name:      "valid sender and timestamp",
			expr:      `sender == "dispo@example.com" && timestamp > timestamp("2026-01-01T00:00:00Z")`,
			wantError: false,
		},
		{
			name:      "invalid syntax",
			expr:      `subject ==`,
			wantError: true,
		},
		{
			name:      "undefined variable",
			expr:      `attachments.size() > 0`,
			wantError: true,
		},
		{
			name:      "non-bool result",
			expr:      `subject`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFilter(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilterMatch(t *testing.T) {
	filter, err := NewFilter(`subject.contains("Transport") && sender.endsWith("@spedition.example")`)
	require.NoError(t, err)

	msg := RawMessage{
		ID:        "m1",
		Subject:   "Transport Hamburg-München",
		Sender:    "dispo@spedition.example",
		Timestamp: time.Now(),
		Body:      "3 pallets",
	}

	match, err := filter.Match(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, match)

	msg.Sender = "noreply@other.example"
	match, err = filter.Match(context.Background(), msg)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestFilterMatchByID(t *testing.T) {
	filter, err := NewFilter(`id == "m2"`)
	require.NoError(t, err)

	match, err := filter.Match(context.Background(), RawMessage{ID: "m2"})
	require.NoError(t, err)
	assert.True(t, match, "single-message reprocessing filters on id")
}
