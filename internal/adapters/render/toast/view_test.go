package toast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stackgnosis/sg-cli/internal/domain"
)

func TestRenderEmptyStack(t *testing.T) {
	assert.Empty(t, Render(nil))
}

func TestRenderVisibleToast(t *testing.T) {
	out := Render([]domain.Toast{
		{ID: "1", Kind: domain.ToastSuccess, Message: "entry saved", Visible: true},
	})

	assert.Contains(t, out, "[success]")
	assert.Contains(t, out, "entry saved")
	assert.NotContains(t, out, "press r to retry")
}

func TestRenderErrorToastOffersRetry(t *testing.T) {
	out := Render([]domain.Toast{
		{ID: "1", Kind: domain.ToastError, Message: "connection lost", Visible: true},
	})

	assert.Contains(t, out, "connection lost")
	assert.Contains(t, out, "press r to retry")
}

func TestRenderToastLink(t *testing.T) {
	tests := []struct {
		name string
		link *domain.ToastLink
		want string
	}{
		{
			name: "labelled link",
			link: &domain.ToastLink{URL: "/entry/go-channels", Label: "open entry"},
			want: "open entry </entry/go-channels>",
		},
		{
			name: "label falls back to the URL",
			link: &domain.ToastLink{URL: "/entry/go-channels"},
			want: "/entry/go-channels </entry/go-channels>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Render([]domain.Toast{
				{ID: "1", Kind: domain.ToastInfo, Message: "new entry", Link: tt.link, Visible: true},
			})
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestRenderKeepsStackOrder(t *testing.T) {
	out := Render([]domain.Toast{
		{ID: "1", Kind: domain.ToastInfo, Message: "older", Visible: true},
		{ID: "2", Kind: domain.ToastInfo, Message: "newer", Visible: true},
	})

	assert.Less(t, strings.Index(out, "older"), strings.Index(out, "newer"))
}

func TestRenderHiddenToastStillOccupiesRow(t *testing.T) {
	out := Render([]domain.Toast{
		{ID: "1", Kind: domain.ToastWarning, Message: "fading away", Visible: false},
	})

	assert.Contains(t, out, "fading away")
}
