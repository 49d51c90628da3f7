package messenger

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	"funnelbot/core/telegram/netutil"
)

// Delivery is the outcome class of a best-effort send. Callers that must not
// fail the triggering operation (postback echoes, broadcasts) use it to decide
// between retrying later and skipping the recipient for good.
type Delivery int

const (
	// DeliveryOK means the message went out.
	DeliveryOK Delivery = iota
	// DeliveryTransient means a retry later may succeed (flood wait, network).
	DeliveryTransient
	// DeliveryPermanent means this recipient is unreachable (blocked the bot,
	// deactivated account); retrying is pointless.
	DeliveryPermanent
)

func (d Delivery) String() string {
	switch d {
	case DeliveryOK:
		return "ok"
	case DeliveryTransient:
		return "transient"
	default:
		return "permanent"
	}
}

// Classify maps a send error to a Delivery class.
func Classify(err error) Delivery {
	if err == nil {
		return DeliveryOK
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		return DeliveryTransient
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429:
			return DeliveryTransient
		case 400, 403:
			// blocked, kicked, chat not found, user deactivated
			return DeliveryPermanent
		}
		if apiErr.Code >= 500 {
			return DeliveryTransient
		}
		return DeliveryPermanent
	}

	if netutil.ShouldRetry(err) {
		return DeliveryTransient
	}
	return DeliveryPermanent
}
