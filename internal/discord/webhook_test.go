package discord

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/httpclient"
	"github.com/dawnstudy/attendance/internal/logger"
)

const testWebhookURL = "https://discord.com/api/webhooks/123/token-abc"

func newMockedWebhook(t *testing.T, username string) *Webhook {
	t.Helper()
	client := httpclient.New(nil)
	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	w, err := NewWebhook(testWebhookURL, username, client, logger.NewSlogLogger(io.Discard, logger.LogLevelDebug, nil))
	require.NoError(t, err)
	return w
}

func TestNewWebhook_RejectsInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "/relative/path"} {
		_, err := NewWebhook(raw, "", nil, nil)
		require.Error(t, err, raw)
		assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	}
}

func TestSend(t *testing.T) {
	w := newMockedWebhook(t, "출석봇")

	httpmock.RegisterResponder(http.MethodPost, testWebhookURL,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "true", req.URL.Query().Get("wait"))

			var body map[string]any
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
			}
			assert.Equal(t, "## 🗓️ 2025-06-02", body["content"])
			assert.Equal(t, "출석봇", body["username"])
			assert.Equal(t, map[string]any{"parse": []any{}}, body["allowed_mentions"])
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"id": "1111", "channel_id": "9"})
		})

	id, err := w.Send(t.Context(), "## 🗓️ 2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, "1111", id)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestSend_MissingID(t *testing.T) {
	w := newMockedWebhook(t, "")
	httpmock.RegisterResponder(http.MethodPost, testWebhookURL,
		httpmock.NewStringResponder(http.StatusOK, `{}`))

	_, err := w.Send(t.Context(), "hello")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryIntegration))
}

func TestSend_ServerError(t *testing.T) {
	w := newMockedWebhook(t, "")
	httpmock.RegisterResponder(http.MethodPost, testWebhookURL,
		httpmock.NewStringResponder(http.StatusInternalServerError, `{"message":"boom"}`))

	_, err := w.Send(t.Context(), "hello")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryHTTP))
	assert.NotErrorIs(t, err, ErrUnknownMessage)
}

func TestSend_TruncatesLongContent(t *testing.T) {
	w := newMockedWebhook(t, "")
	var got string
	httpmock.RegisterResponder(http.MethodPost, testWebhookURL,
		func(req *http.Request) (*http.Response, error) {
			var body messagePayload
			_ = json.NewDecoder(req.Body).Decode(&body)
			got = body.Content
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"id": "1"})
		})

	_, err := w.Send(t.Context(), strings.Repeat("가", maxContentLength+50))
	require.NoError(t, err)
	assert.Len(t, []rune(got), maxContentLength)
}

func TestEdit(t *testing.T) {
	w := newMockedWebhook(t, "ignored-on-edit")
	httpmock.RegisterResponder(http.MethodPatch, testWebhookURL+"/messages/1111",
		func(req *http.Request) (*http.Response, error) {
			var body map[string]any
			_ = json.NewDecoder(req.Body).Decode(&body)
			assert.Equal(t, "updated", body["content"])
			assert.NotContains(t, body, "username")
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"id": "1111"})
		})

	require.NoError(t, w.Edit(t.Context(), "1111", "updated"))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestDelete(t *testing.T) {
	w := newMockedWebhook(t, "")
	httpmock.RegisterResponder(http.MethodDelete, testWebhookURL+"/messages/2222",
		httpmock.NewStringResponder(http.StatusNoContent, ""))
	httpmock.RegisterResponder(http.MethodDelete, testWebhookURL+"/messages/3333",
		httpmock.NewStringResponder(http.StatusNotFound, `{"message":"Unknown Message","code":10008}`))

	require.NoError(t, w.Delete(t.Context(), "2222"))

	err := w.Delete(t.Context(), "3333")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnknownMessage)
	assert.True(t, errors.IsNotFound(err))
}
