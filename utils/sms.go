package utils

import (
	"fmt"

	"github.com/cppla/greenwall/config"
)

// SendSMS delivers a verification code to a phone number. Only the "log"
// provider exists today: it writes the send to the application log, which
// is enough for development together with the EchoVerifyCode response
// field. A real gateway slots in behind the same function.
func SendSMS(phone, code string) error {
	cfg := config.Get()
	switch cfg.SMSProvider {
	case "", "log":
		if Sugar != nil {
			Sugar.Infof("sms[log] verification code %s -> %s", code, phone)
		}
		return nil
	default:
		return fmt.Errorf("unknown sms provider %q", cfg.SMSProvider)
	}
}
