package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/metrics"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/util"
)

var ErrInvalidNumber = errors.New("sms: invalid destination number")

type Config struct {
	APIURL    string
	User      string
	Password  string
	SenderID  string
	Channel   string
	Route     string
	Signature string
	Timeout   time.Duration
	// Bypass lets delivery failures through, logging the code instead.
	// Never set in production.
	Bypass bool
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Gateway struct {
	cfg    Config
	client httpDoer
	logger *zap.Logger
}

func NewGateway(cfg Config, logger *zap.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("sms"),
	}
}

// NormalizeNumber keeps digits only and strips the 91 country prefix from
// 12 digit Indian numbers.
func NormalizeNumber(phone string) string {
	digits := util.DigitsOnly(phone)
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		return digits[2:]
	}
	return digits
}

func (g *Gateway) Message(code string) string {
	return fmt.Sprintf("Your OTP number for registration is %s. Please verify your OTP - %s", code, g.cfg.Signature)
}

func (g *Gateway) SendOTP(ctx context.Context, phone, code string) error {
	number := NormalizeNumber(phone)
	if number == "" {
		metrics.SMSDeliveriesTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return ErrInvalidNumber
	}

	if g.cfg.User == "" || g.cfg.Password == "" {
		return g.fallback(number, code, errors.New("sms: gateway credentials not configured"))
	}

	endpoint, err := g.buildURL(number, code)
	if err != nil {
		return g.fallback(number, code, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return g.fallback(number, code, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return g.fallback(number, code, fmt.Errorf("sms: request failed: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return g.fallback(number, code, fmt.Errorf("sms: gateway responded %d", resp.StatusCode))
	}

	metrics.SMSDeliveriesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	g.logger.Info("otp sms sent", zap.String("number", mask(number)))
	return nil
}

func (g *Gateway) buildURL(number, code string) (string, error) {
	base, err := url.Parse(g.cfg.APIURL)
	if err != nil {
		return "", fmt.Errorf("sms: invalid api url: %w", err)
	}
	q := base.Query()
	q.Set("user", g.cfg.User)
	q.Set("password", g.cfg.Password)
	q.Set("senderid", g.cfg.SenderID)
	q.Set("channel", g.cfg.Channel)
	q.Set("DCS", "0")
	q.Set("flashsms", "0")
	q.Set("number", number)
	q.Set("text", g.Message(code))
	q.Set("route", g.cfg.Route)
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func (g *Gateway) fallback(number, code string, cause error) error {
	if !g.cfg.Bypass {
		metrics.SMSDeliveriesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		g.logger.Error("otp sms failed", zap.String("number", mask(number)), zap.Error(cause))
		return cause
	}
	metrics.SMSDeliveriesTotal.WithLabelValues(metrics.ResultBypassed).Inc()
	g.logger.Warn("otp sms bypassed",
		zap.String("number", mask(number)),
		zap.String("otp", code),
		zap.Error(cause),
	)
	return nil
}

func mask(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
