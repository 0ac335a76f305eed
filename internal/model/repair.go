package model

import "time"

// Repair request statuses. A request normally advances open → quoted →
// accepted → in_progress → done → rated → closed. The first quote flips
// open to quoted; acceptance of a quote sets accepted. Later stages are
// driven by admin overrides, which may set any value out of sequence.
const (
	RequestDraft      = "draft"
	RequestOpen       = "open"
	RequestQuoted     = "quoted"
	RequestAccepted   = "accepted"
	RequestInProgress = "in_progress"
	RequestDone       = "done"
	RequestRated      = "rated"
	RequestClosed     = "closed"
)

// RequestStatuses lists every valid request status, in lifecycle order.
var RequestStatuses = []string{
	RequestDraft, RequestOpen, RequestQuoted, RequestAccepted,
	RequestInProgress, RequestDone, RequestRated, RequestClosed,
}

// Request visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// RepairRequest represents a row in the `repair_requests` table: a unit of
// work posted by a client, against which repairers submit quotes.
//
// AcceptedQuoteID, when set, always references a quote of this request whose
// status is accepted; it is written only inside the acceptance transaction.
type RepairRequest struct {
	ID              uint64     // repair_requests.id
	Title           string     // repair_requests.title
	Description     string     // repair_requests.description
	Category        string     // repair_requests.category
	Subcategory     string     // repair_requests.subcategory (nullable)
	City            string     // repair_requests.city
	Address         string     // repair_requests.address (nullable)
	Latitude        *float64   // repair_requests.latitude (nullable)
	Longitude       *float64   // repair_requests.longitude (nullable)
	BudgetMin       *int64     // repair_requests.budget_min (nullable)
	BudgetMax       *int64     // repair_requests.budget_max (nullable)
	Status          string     // repair_requests.status
	Visibility      string     // repair_requests.visibility
	ClientID        uint64     // repair_requests.client_id
	AcceptedQuoteID *uint64    // repair_requests.accepted_quote_id (nullable)
	CreatedAt       time.Time  // repair_requests.created_at
	UpdatedAt       time.Time  // repair_requests.updated_at
}

// RequestSummary is a listing row: the request plus metadata joined from
// the users and quotes tables, so listings need a single query.
type RequestSummary struct {
	RepairRequest
	QuotesCount    int64  // number of quotes submitted against the request
	ClientUsername string // users.username of the owning client
	ClientCity     string // users.city of the owning client
}

// RequestFilter narrows the public listing. Category and Status match
// exactly ("" or "all" disables the filter); City and Search are
// case-insensitive substring matches, Search spanning title OR description.
type RequestFilter struct {
	Category string
	City     string
	Status   string
	Search   string
}

// RepairImage is a photo attached to a repair request. Purely additive;
// it carries no status of its own.
type RepairImage struct {
	ID              uint64    // repair_images.id
	RepairRequestID uint64    // repair_images.repair_request_id
	Filename        string    // repair_images.filename
	URL             string    // repair_images.url (public path)
	CreatedAt       time.Time // repair_images.created_at
}

// ValidRequestStatus reports whether s is one of the enumerated request
// statuses.
func ValidRequestStatus(s string) bool {
	for _, v := range RequestStatuses {
		if v == s {
			return true
		}
	}
	return false
}
