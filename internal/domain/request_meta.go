package domain

import "strings"

// RequestMeta carries client details recorded for audit on OTP and session rows.
type RequestMeta struct {
	IP        string
	UserAgent string
}

func (m RequestMeta) IPPtr() *string {
	return optionalString(m.IP)
}

func (m RequestMeta) UserAgentPtr() *string {
	return optionalString(m.UserAgent)
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
