package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenRevoked  ErrCode = "TOKEN_REVOKED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrPermissionDenied  ErrCode = "PERMISSION_DENIED"
	ErrLearnerAccessOnly ErrCode = "LEARNER_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Test authoring ────────────────────────────────────────────────
	ErrTestNotDraft         ErrCode = "TEST_NOT_DRAFT"
	ErrTestNotPublished     ErrCode = "TEST_NOT_PUBLISHED"
	ErrTestIsPublished      ErrCode = "TEST_PUBLISHED"
	ErrNoQuestions          ErrCode = "NO_QUESTIONS"
	ErrTestHasProblems      ErrCode = "TEST_HAS_BROKEN_TOKENS"
	ErrGroupNotFound        ErrCode = "GROUP_NOT_FOUND"
	ErrQuestionNotFound     ErrCode = "QUESTION_NOT_FOUND"
	ErrInvalidQuestionSet   ErrCode = "INVALID_QUESTION_SET"
	ErrUnknownEditOperation ErrCode = "UNKNOWN_EDIT_OPERATION"

	// ─── Attempts ──────────────────────────────────────────────────────
	ErrAttemptNotFound   ErrCode = "ATTEMPT_NOT_FOUND"
	ErrNotAttemptOwner   ErrCode = "NOT_ATTEMPT_OWNER"
	ErrQuestionNotInTest ErrCode = "QUESTION_NOT_IN_TEST"
	ErrTestWithdrawn     ErrCode = "TEST_WITHDRAWN"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."
	case ErrTokenRevoked:
		return "This session has been signed out. Please sign in again."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You are not allowed to access this resource."
	case ErrPermissionDenied:
		return "Permission denied."
	case ErrLearnerAccessOnly:
		return "This resource is limited to learners."
	case ErrAdminAccessOnly:
		return "This resource is limited to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Test authoring ────────────────────────────────────────────────
	case ErrTestNotDraft:
		return "This test is not in DRAFT status."
	case ErrTestNotPublished:
		return "This test has not been published."
	case ErrTestIsPublished:
		return "Published tests must be archived before they can be deleted."
	case ErrNoQuestions:
		return "This test has no questions."
	case ErrTestHasProblems:
		return "This test has placeholders or answers that need fixing before publishing."
	case ErrGroupNotFound:
		return "Question group not found."
	case ErrQuestionNotFound:
		return "Question not found."
	case ErrInvalidQuestionSet:
		return "The question set is invalid."
	case ErrUnknownEditOperation:
		return "Unknown edit operation."

	// ─── Attempts ──────────────────────────────────────────────────────
	case ErrAttemptNotFound:
		return "Attempt not found or already submitted."
	case ErrNotAttemptOwner:
		return "This attempt belongs to another learner."
	case ErrQuestionNotInTest:
		return "This question is not part of the test."
	case ErrTestWithdrawn:
		return "This test is no longer available."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File exceeds the size limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
