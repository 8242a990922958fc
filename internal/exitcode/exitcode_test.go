package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type tagged struct{}

func (tagged) Error() string { return "tagged" }

func TestFromError(t *testing.T) {
	recogniseTagged := func(err error) (Status, bool) {
		var tg tagged
		if errors.As(err, &tg) {
			return UserError, true
		}
		return OK, false
	}

	assert.Equal(t, OK, FromError(nil))
	assert.Equal(t, UserError, FromError(Invocationf("Unknown action %s", "touch")))
	assert.Equal(t, UserError, FromError(fmt.Errorf("acmd: %w", Invocationf("nope"))))
	assert.Equal(t, ServerError, FromError(&StatusError{Status: ServerError}))
	assert.Equal(t, ServerError, FromError(errors.New("disk on fire")))
	assert.Equal(t, UserError, FromError(fmt.Errorf("wrapped: %w", tagged{}), recogniseTagged))
}

func TestWorst(t *testing.T) {
	assert.Equal(t, OK, Worst(OK, OK))
	assert.Equal(t, ServerError, Worst(OK, ServerError))
	assert.Equal(t, ServerError, Worst(ServerError, OK))
	assert.Equal(t, UserError, Worst(ServerError, UserError))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OK", OK.String())
	assert.Equal(t, "SERVER_ERROR", ServerError.String())
	assert.Equal(t, "USER_ERROR", UserError.String())
	assert.Equal(t, "Status(7)", Status(7).String())
}
