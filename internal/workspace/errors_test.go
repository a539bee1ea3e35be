package workspace

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/lgulliver/pdfbinder/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
		kind string
	}{
		{name: "nil", err: nil, want: nil, kind: "ok"},
		{name: "invalid session", err: fmt.Errorf("x: %w", storage.ErrInvalidSession), want: ErrInvalidInput, kind: "invalid_input"},
		{name: "invalid name", err: storage.ErrInvalidName, want: ErrInvalidInput, kind: "invalid_input"},
		{name: "missing file", err: fmt.Errorf("open: %w", os.ErrNotExist), want: ErrNotFound, kind: "not_found"},
		{name: "already classified", err: ErrEmptyWorkspace, want: ErrEmptyWorkspace, kind: "empty"},
		{name: "anything else", err: errors.New("disk full"), want: ErrIOFailure, kind: "io_failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err, "op")
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
				if tt.err != nil {
					assert.ErrorIs(t, err, tt.err, "the cause stays reachable")
				}
			}
			assert.Equal(t, tt.kind, Kind(err))
		})
	}
}
