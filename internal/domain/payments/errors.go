package payments

// Domain error codes for the payment engine. Callers dispatch on these via
// shared.ErrorCode: INVALID_* / EMPTY_SELECTION / MISSING_NET_TO_OWNER are
// caller-fixable validation failures, the remainder are state conflicts.
const (
	CodeInvalidAllocationAmount = "INVALID_ALLOCATION_AMOUNT"
	CodeMissingNetToOwner       = "MISSING_NET_TO_OWNER"
	CodeAlreadyAllocated        = "ALREADY_ALLOCATED"
	CodeNothingToAllocate       = "NOTHING_TO_ALLOCATE"
	CodeNetAlreadyComputed      = "NET_ALREADY_COMPUTED"
	CodeEmptySelection          = "EMPTY_SELECTION"
	CodeNotPending              = "NOT_PENDING"
	CodeBatchAlreadyPaid        = "BATCH_ALREADY_PAID"
	CodeInvalidTransition       = "INVALID_TRANSITION"
)
