package moderation

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

var (
	// ErrPermissionDenied means the invoking member or the bot lacks the authority for an action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrTargetInvalid means the target cannot be moderated (bot, self or administrator).
	ErrTargetInvalid = errors.New("invalid target")
	// ErrRoleCreationFailed means the restricted role could not be fully established.
	ErrRoleCreationFailed = errors.New("restricted role setup failed")
	// ErrHistoryInconclusive means no audit entry explains a held restricted role.
	ErrHistoryInconclusive = errors.New("audit history inconclusive")
	// ErrTransient marks network, rate-limit and server-side failures of the platform.
	ErrTransient = errors.New("transient platform failure")
	// ErrTargetNotSanctioned means an unmute targeted a member who is not muted.
	ErrTargetNotSanctioned = errors.New("target is not sanctioned")
	// ErrInvalidAmount means a purge count was out of range.
	ErrInvalidAmount = errors.New("invalid message amount")
)

// Target check names reported by TargetError.
const (
	TargetIsBot           = "bot"
	TargetIsSelf          = "self"
	TargetIsAdministrator = "administrator"
)

// TargetError reports which target check failed.
type TargetError struct {
	Reason string
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTargetInvalid, e.Reason)
}

func (e *TargetError) Unwrap() error {
	return ErrTargetInvalid
}

// classifyError maps a discordgo error onto the sentinels above, keeping the original error in the chain.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrPermissionDenied) {
		return err
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			switch restErr.Message.Code {
			case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
				return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
			}
		}
		if restErr.Response != nil {
			code := restErr.Response.StatusCode
			switch {
			case code == http.StatusForbidden:
				return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
			case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
				return fmt.Errorf("%w: %w", ErrTransient, err)
			}
		}
		return err
	}

	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}

	return err
}

// isUnknownMember reports whether err is Discord's "unknown member" response.
func isUnknownMember(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMember {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
