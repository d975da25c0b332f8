package config

import (
	"github.com/kelseyhightower/envconfig"
)

// App holds everything outside the database connection. Policy values the
// booking engine depends on (country code, TTLs, search windows) are
// explicit configuration, not constants buried in code.
type App struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// Booking policy
	DefaultCountryCode string `envconfig:"DEFAULT_COUNTRY_CODE" default:"+91"`
	SessionTTLMin      int    `envconfig:"SESSION_TTL_MIN" default:"30"`
	BookingHorizonDays int    `envconfig:"BOOKING_HORIZON_DAYS" default:"60"`
	AltSearchDays      int    `envconfig:"ALT_SEARCH_DAYS" default:"14"`
	OTPTTLHours        int    `envconfig:"OTP_TTL_HOURS" default:"24"`

	// Transport credentials
	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	MetaAccessToken  string `envconfig:"META_ACCESS_TOKEN"`
	MetaPhoneID      string `envconfig:"META_PHONE_NUMBER_ID"`
	MetaVerifyToken  string `envconfig:"META_VERIFY_TOKEN" default:"agritrack_verify_token"`

	// Event bus; publishing is disabled when the URL is empty.
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"agritrack.events"`

	// Tracing; disabled when the endpoint is empty.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Environment  string `envconfig:"ENV" default:"dev"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
