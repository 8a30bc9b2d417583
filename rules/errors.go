package rules

import (
	"errors"
	"fmt"
)

// ConfigError indicates malformed campaign or rule configuration. It is
// raised at construction time, before any query executes, and is fatal:
// the campaign must be treated as unusable until its configuration is
// fixed upstream.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configErrorf(format string, args ...any) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a campaign configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ErrCampaignNotFound is returned by CampaignStore implementations when
// no campaign exists for the requested id.
var ErrCampaignNotFound = errors.New("campaign not found")
