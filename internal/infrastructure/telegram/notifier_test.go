package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSendsForm(t *testing.T) {
	t.Parallel()

	var path, chatID, text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		chatID = r.PostForm.Get("chat_id")
		text = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL+"/", "123:abc", "-100")
	require.NoError(t, n.Publish(context.Background(), "Slice Thickness Alert – Slicer 1", "Status: OUT_OF_RANGE_HIGH"))

	assert.Equal(t, "/bot123:abc/sendMessage", path)
	assert.Equal(t, "-100", chatID)
	assert.Equal(t, "Slice Thickness Alert – Slicer 1\n\nStatus: OUT_OF_RANGE_HIGH", text)
}

func TestPublishReportsStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL, "t", "c").Publish(context.Background(), "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestPublishMisconfigured(t *testing.T) {
	t.Parallel()

	require.Error(t, NewNotifier("", "", "").Publish(context.Background(), "s", "b"))
}
