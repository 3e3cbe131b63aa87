package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_otp_issued_total",
		Help: "Total number of one-time codes issued, by outcome.",
	}, []string{"result"})

	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_otp_verifications_total",
		Help: "Total number of OTP verification attempts, by outcome.",
	}, []string{"result"})

	SMSDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_sms_deliveries_total",
		Help: "Total number of SMS gateway calls, by outcome.",
	}, []string{"result"})

	SessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_sessions_created_total",
		Help: "Total number of login sessions created.",
	})
)

const (
	ResultSuccess     = "success"
	ResultFailure     = "failure"
	ResultBypassed    = "bypassed"
	ResultNotFound    = "not_found"
	ResultInvalid     = "invalid"
	ResultExceeded    = "exceeded"
	ResultRaceLost    = "race_lost"
	ResultUndelivered = "undelivered"
)
