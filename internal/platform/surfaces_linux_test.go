//go:build linux

package platform

import (
	"errors"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	pkgerrors "github.com/pkg/errors"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/renderer"
)

func TestSurfaceErrorMapsBadWindow(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		invalid bool
	}{
		{"nil", nil, false},
		{"queued bad window", pkgerrors.Wrap(xproto.WindowError{NiceName: "Window", BadValue: 0x1200004}, "queued overlay request"), true},
		{"direct bad window", xproto.WindowError{NiceName: "Window"}, true},
		{"other", errors.New("sync with X server: connection closed"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := surfaceError(tc.err)
			if tc.err == nil {
				if got != nil {
					t.Fatalf("surfaceError(nil) = %v", got)
				}
				return
			}
			if errors.Is(got, renderer.ErrSurfaceInvalid) != tc.invalid {
				t.Fatalf("surfaceError(%v) = %v, invalid want %v", tc.err, got, tc.invalid)
			}
		})
	}
}
