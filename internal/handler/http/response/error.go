package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/worktally/worktally-backend/internal/domain/auth"
	"github.com/worktally/worktally-backend/internal/domain/balance"
	"github.com/worktally/worktally-backend/internal/domain/calendar"
	"github.com/worktally/worktally-backend/internal/domain/notification"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/subscription"
	"github.com/worktally/worktally-backend/internal/domain/task"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/domain/worksession"
	"github.com/worktally/worktally-backend/internal/pkg/storage"
	"github.com/worktally/worktally-backend/internal/pkg/validator"
	"github.com/worktally/worktally-backend/internal/service/file"
)

var (
	notFoundErrors = []error{
		user.ErrUserNotFound,
		project.ErrProjectNotFound,
		project.ErrMemberNotFound,
		worksession.ErrSessionNotFound,
		worksession.ErrNoOpenSession,
		worksession.ErrNoOpenBreak,
		task.ErrTaskNotFound,
		task.ErrChecklistItemNotFound,
		task.ErrAttachmentNotFound,
		calendar.ErrEntryNotFound,
		notification.ErrNotificationNotFound,
		subscription.ErrSubscriptionNotFound,
		storage.ErrFileNotFound,
	}

	conflictErrors = []error{
		user.ErrUserEmailExists,
		user.ErrOAuthProviderIDExists,
		project.ErrProjectSlugExists,
		project.ErrAlreadyMember,
		project.ErrLastAdmin,
		project.ErrCircularReference,
		project.ErrHierarchyTooDeep,
		worksession.ErrSessionAlreadyOpen,
		worksession.ErrBreakAlreadyOpen,
		worksession.ErrSessionStillOpen,
		subscription.ErrSameTier,
		subscription.ErrSeatLimitExceeded,
		subscription.ErrSeatsBelowMembers,
	}

	forbiddenErrors = []error{
		project.ErrNotProjectMember,
		project.ErrProjectRequired,
		project.ErrInsufficientRole,
		project.ErrNotInReportingLine,
		project.ErrOwnerCannotBeRemoved,
		balance.ErrAccessDenied,
		worksession.ErrSessionNotEditable,
		worksession.ErrSessionAccessDenied,
		task.ErrTaskAccessDenied,
		calendar.ErrEntryReadOnly,
		calendar.ErrEntryAccessDenied,
		subscription.ErrFeatureNotAvailable,
		subscription.ErrSubscriptionExpired,
		auth.ErrNoProjectAccess,
	}

	unauthorizedErrors = []error{
		auth.ErrInvalidCredentials,
		auth.ErrInvalidToken,
		auth.ErrRefreshTokenRevoked,
		auth.ErrInvalidOAuthState,
	}

	badRequestErrors = []error{
		project.ErrSelfManagement,
		project.ErrManagerNotMember,
		project.ErrInvalidRole,
		task.ErrAssigneeNotMember,
		worksession.ErrSessionInFuture,
		balance.ErrRangeTooLong,
		subscription.ErrInvalidTier,
		notification.ErrInvalidNotificationType,
		user.ErrInvalidTimezone,
		user.ErrAvatarTooLarge,
		user.ErrUnsupportedAvatarType,
		file.ErrFileTooLarge,
		file.ErrUnsupportedFileType,
		storage.ErrInvalidPath,
	}
)

func matches(err error, targets []error) (error, bool) {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target, true
		}
	}
	return nil, false
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	if target, ok := matches(err, notFoundErrors); ok {
		NotFound(w, target.Error())
		return
	}
	if target, ok := matches(err, conflictErrors); ok {
		Conflict(w, target.Error())
		return
	}
	if target, ok := matches(err, forbiddenErrors); ok {
		Forbidden(w, target.Error())
		return
	}
	if target, ok := matches(err, unauthorizedErrors); ok {
		Unauthorized(w, target.Error())
		return
	}
	if target, ok := matches(err, badRequestErrors); ok {
		BadRequest(w, target.Error(), nil)
		return
	}

	slog.Error("unhandled error", "error", err)
	InternalServerError(w, "An unexpected error occurred")
}
