package email

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestPublishSendsToRecipient(t *testing.T) {
	t.Parallel()

	var gotCfg Config
	var gotMsg *mail.Msg
	send := func(_ context.Context, cfg Config, msg *mail.Msg) error {
		gotCfg, gotMsg = cfg, msg
		return nil
	}

	n := NewNotifier(Config{
		Host:     "smtp.example.com",
		Username: "qc",
		Password: "pw",
		From:     "qc@example.com",
		To:       "supervisor@example.com",
	}, send)

	require.NoError(t, n.Publish(context.Background(), "Slice Thickness Alert – Slicer 2", "line one\nline two"))

	assert.Equal(t, 587, gotCfg.Port)
	assert.Equal(t, "qc", gotCfg.Username)
	require.NotNil(t, gotMsg)

	from, err := gotMsg.GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "qc@example.com", from)

	to, err := gotMsg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"supervisor@example.com"}, to)
	assert.Len(t, gotMsg.GetGenHeader(mail.HeaderSubject), 1)

	var raw bytes.Buffer
	_, err = gotMsg.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "line two")
}

func TestSenderDefaultsToUsername(t *testing.T) {
	t.Parallel()

	var gotMsg *mail.Msg
	n := NewNotifier(Config{Host: "h", Username: "qc@example.com", To: "b@example.com"}, func(_ context.Context, _ Config, msg *mail.Msg) error {
		gotMsg = msg
		return nil
	})

	require.NoError(t, n.Publish(context.Background(), "s", "b"))
	from, err := gotMsg.GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "qc@example.com", from)
}

func TestPublishWrapsSendError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	n := NewNotifier(Config{Host: "h", Port: 25, From: "a@example.com", To: "b@example.com"}, func(context.Context, Config, *mail.Msg) error {
		return boom
	})

	err := n.Publish(context.Background(), "s", "b")
	require.ErrorIs(t, err, boom)
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	called := false
	n := NewNotifier(Config{Host: "h", From: "a@example.com", To: "b@example.com"}, func(context.Context, Config, *mail.Msg) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, n.Publish(ctx, "s", "b"), context.Canceled)
	assert.False(t, called)
}

func TestPublishMisconfigured(t *testing.T) {
	t.Parallel()

	n := NewNotifier(Config{}, func(context.Context, Config, *mail.Msg) error { return nil })
	require.Error(t, n.Publish(context.Background(), "s", "b"))

	n = NewNotifier(Config{Host: "h", From: "not an address", To: "b@example.com"}, func(context.Context, Config, *mail.Msg) error { return nil })
	require.Error(t, n.Publish(context.Background(), "s", "b"))
}

func TestBuildMessageSetsDate(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 10, 7, 5, 0, 0, time.UTC)
	msg, err := BuildMessage("a@example.com", "b@example.com", "Alert – Slicer 1", "body", at)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sun, 10 Mar 2024 07:05:00 +0000"}, msg.GetGenHeader(mail.HeaderDate))

	var raw bytes.Buffer
	_, err = msg.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "Subject: =?UTF-8?q?")
}
