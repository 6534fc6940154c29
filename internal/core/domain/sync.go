package domain

// Wire actions understood by the sync endpoint.
const (
	ActionSyncPush = "SYNC_PUSH"
	ActionSyncPull = "SYNC_PULL"
	ActionGetUser  = "GET_USER"
)

// Response status values of the sync endpoint.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SyncPushRequest is the body of a push.
type SyncPushRequest struct {
	Action    string            `json:"action" binding:"required,eq=SYNC_PUSH"`
	CompanyID string            `json:"companyId" binding:"required"`
	Data      PartitionDocument `json:"data"`
}

// SyncPullResponse is the envelope returned by a pull. Data is nil when the
// key was missing from the response.
type SyncPullResponse struct {
	Status  string             `json:"status"`
	Data    *PartitionDocument `json:"data,omitempty"`
	Message string             `json:"message,omitempty"`
}

// UserLookupResponse is the envelope returned by a lookup by e-mail.
type UserLookupResponse struct {
	Status  string `json:"status"`
	Data    *User  `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// SyncOutcome is the result of a push or pull. Sync never returns errors to
// its callers; this is all they learn.
type SyncOutcome string

const (
	// SyncSkipped means nothing was attempted: offline, no endpoint, no
	// session, or a push already in flight.
	SyncSkipped SyncOutcome = "SKIPPED"
	// SyncSent means a push left the device. Delivery is not confirmed.
	SyncSent SyncOutcome = "SENT"
	// SyncMerged means a pull response was merged into the local state.
	SyncMerged SyncOutcome = "MERGED"
	// SyncNoData means the server answered without a usable data envelope.
	SyncNoData SyncOutcome = "NO_DATA"
	// SyncFailed means the transport failed.
	SyncFailed SyncOutcome = "FAILED"
)
