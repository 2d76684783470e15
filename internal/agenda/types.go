package agenda

import "time"

// Category identifies which kind of source record produced an event.
type Category string

const (
	CategoryProject  Category = "project"
	CategoryPayment  Category = "payment"
	CategoryDispatch Category = "dispatch"
	CategoryLeave    Category = "leave"
	CategoryVisit    Category = "visit"
	CategoryCustom   Category = "custom"
)

// Color tokens used by the presentation layer. Payment entries carry an
// urgency token depending on whether the stage has been paid.
const (
	ColorProject    = "emerald"
	ColorPaymentOK  = "teal"
	ColorPaymentDue = "rose"
	ColorDispatch   = "sky"
	ColorLeave      = "amber"
	ColorVisit      = "purple"
	ColorCustom     = "indigo"
)

// PaymentStatusPaid is the stage status that marks a payment as settled.
const PaymentStatusPaid = "paid"

// LeaveTemplateID is the approval template that marks a request as a leave
// request; other approval templates never appear on the calendar.
const LeaveTemplateID = "TPL-LEAVE"

// StatusApproved is the approval request status required for leave events.
const StatusApproved = "approved"

// earlyStageStatuses are project statuses excluded from the calendar: the
// project either has not been won yet or never will be. Values are the host
// system's stored status strings.
var earlyStageStatuses = map[string]bool{
	"洽談中": true, // negotiating
	"報價中": true, // quoting
	"已報價": true, // quoted
	"待簽約": true, // awaiting signature
	"撤案":  true, // withdrawn
	"未成交": true, // not won
}

// Project is a construction project record. Payment stages and work
// assignments are nested the way the host stores them, so payment and
// dispatch events inherit the project's manager scoping.
type Project struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Status             string           `json:"status"`
	StartDate          string           `json:"startDate,omitempty"`
	EndDate            string           `json:"endDate,omitempty"`
	Manager            string           `json:"manager,omitempty"`
	QuotationManager   string           `json:"quotationManager,omitempty"`
	EngineeringManager string           `json:"engineeringManager,omitempty"`
	HideInCalendar     bool             `json:"hideInCalendar,omitempty"`
	Payments           []PaymentStage   `json:"payments,omitempty"`
	Assignments        []WorkAssignment `json:"workAssignments,omitempty"`
}

// PaymentStage is one billing milestone of a project.
type PaymentStage struct {
	ID     string `json:"id"`
	Label  string `json:"label,omitempty"`
	Date   string `json:"date,omitempty"`
	Status string `json:"status,omitempty"` // "pending" or "paid"
}

// WorkAssignment dispatches one team member to a project for a day.
type WorkAssignment struct {
	ID         string `json:"id"`
	Date       string `json:"date,omitempty"`
	MemberID   string `json:"memberId,omitempty"`
	MemberName string `json:"memberName,omitempty"`
}

// LeaveRequest is an approval-workflow request. Only approved requests using
// the leave template become calendar events.
type LeaveRequest struct {
	ID            string `json:"id"`
	TemplateID    string `json:"templateId"`
	Status        string `json:"status"`
	RequesterID   string `json:"requesterId"`
	RequesterName string `json:"requesterName,omitempty"`
	LeaveType     string `json:"leaveType,omitempty"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
}

// SiteVisit is a prospective-customer site survey appointment.
type SiteVisit struct {
	ID           string `json:"id"`
	CustomerName string `json:"customerName,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
}

// CustomEvent is a user-created calendar entry. ExternalID is the Google
// Calendar correlation id once the event has been mirrored; empty means not
// yet synced, and a stale value is recovered by the sync client.
type CustomEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	CreatedBy   string `json:"createdBy,omitempty"`
	ExternalID  string `json:"googleEventId,omitempty"`
}

// TeamMember resolves requester ids to display names.
type TeamMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Sources carries every record collection the aggregator reads. All fields
// are read-only to the aggregation pass.
type Sources struct {
	Projects []Project
	Leaves   []LeaveRequest
	Visits   []SiteVisit
	Custom   []CustomEvent
	Members  []TeamMember
}

// Filters toggles each category independently and controls the two
// cross-cutting scopes. A record excluded by its category flag never enters
// the output regardless of other rules.
type Filters struct {
	Projects   bool
	Payments   bool
	Dispatches bool
	Leaves     bool
	Visits     bool
	Custom     bool

	// ShowHidden includes projects flagged hideInCalendar.
	ShowHidden bool
	// OnlyMine keeps only events the viewer manages, is assigned to,
	// requested, or created.
	OnlyMine bool
}

// DefaultFilters enables every category with both scopes off.
func DefaultFilters() Filters {
	return Filters{
		Projects:   true,
		Payments:   true,
		Dispatches: true,
		Leaves:     true,
		Visits:     true,
		Custom:     true,
	}
}

// Viewer identifies the requesting user for "only mine" scoping. Manager
// fields on projects store names, member assignments store ids and names, so
// both identifiers participate in matching.
type Viewer struct {
	ID   string
	Name string
}

// SourceRecord is a tagged reference to the record an event was derived
// from. Consumers type-switch over the concrete arms; the unexported method
// keeps the set of arms closed.
type SourceRecord interface {
	sourceRecord()
}

// ProjectSource is the source arm for project duration events.
type ProjectSource struct {
	Project *Project
}

// PaymentSource is the source arm for payment stage events.
type PaymentSource struct {
	Project *Project
	Stage   *PaymentStage
}

// DispatchSource is the source arm for work assignment events.
type DispatchSource struct {
	Project    *Project
	Assignment *WorkAssignment
}

// LeaveSource is the source arm for approved leave events.
type LeaveSource struct {
	Request *LeaveRequest
}

// VisitSource is the source arm for site visit events.
type VisitSource struct {
	Visit *SiteVisit
}

// CustomSource is the source arm for user-created events.
type CustomSource struct {
	Event *CustomEvent
}

func (ProjectSource) sourceRecord()  {}
func (PaymentSource) sourceRecord()  {}
func (DispatchSource) sourceRecord() {}
func (LeaveSource) sourceRecord()    {}
func (VisitSource) sourceRecord()    {}
func (CustomSource) sourceRecord()   {}

// Event is one normalized calendar entry. Events are recreated on every
// aggregation pass and never mutated in place; the ID is deterministic for a
// given source record and unique across categories within a pass.
type Event struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	AllDay   bool
	Category Category
	Color    string
	Source   SourceRecord
}
