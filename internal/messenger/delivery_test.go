package messenger

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Delivery
	}{
		{"nil", nil, DeliveryOK},
		{"flood wait", tele.FloodError{RetryAfter: 30}, DeliveryTransient},
		{"too many requests", &tele.Error{Code: 429}, DeliveryTransient},
		{"blocked by user", &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}, DeliveryPermanent},
		{"chat not found", &tele.Error{Code: 400, Description: "Bad Request: chat not found"}, DeliveryPermanent},
		{"telegram internal", &tele.Error{Code: 502}, DeliveryTransient},
		{"timeout", context.DeadlineExceeded, DeliveryTransient},
		{"dns", &net.DNSError{IsTimeout: true}, DeliveryTransient},
		{"other", errors.New("boom"), DeliveryPermanent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err), tc.name)
		})
	}
}

func TestDeliveryString(t *testing.T) {
	assert.Equal(t, "ok", DeliveryOK.String())
	assert.Equal(t, "transient", DeliveryTransient.String())
	assert.Equal(t, "permanent", DeliveryPermanent.String())
}
