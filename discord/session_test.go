package discord

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status, Status: http.StatusText(status)},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "nope"},
	}
}

func TestClassify(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(Classify(nil))

	err := Classify(restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions))
	assert.ErrorIs(err, ErrPermissionDenied)

	err = Classify(restError(http.StatusNotFound, discordgo.ErrCodeUnknownMessage))
	assert.ErrorIs(err, ErrNotFound)

	err = Classify(restError(http.StatusNotFound, discordgo.ErrCodeUnknownMember))
	assert.ErrorIs(err, ErrNotFound)

	// status code fallback when the code is not one we map
	err = Classify(restError(http.StatusForbidden, 0))
	assert.ErrorIs(err, ErrPermissionDenied)

	err = Classify(restError(http.StatusInternalServerError, 0))
	assert.False(errors.Is(err, ErrPermissionDenied))
	assert.False(errors.Is(err, ErrNotFound))

	plain := errors.New("websocket closed")
	assert.Equal(plain, Classify(plain))
}

func TestMessageSendSilentFlag(t *testing.T) {
	assert := assert.New(t)

	msg := messageSend("check the pins", true)
	assert.Equal("check the pins", msg.Content)
	assert.Equal(discordgo.MessageFlagsSuppressNotifications, msg.Flags)

	assert.Zero(messageSend("hello", false).Flags)
}
