package session

import "time"

// Flow identifies the top-level conversational task a citizen is in.
type Flow string

const (
	FlowNone           Flow = ""
	FlowLanguageSelect Flow = "language_select"
	FlowMainMenu       Flow = "main_menu"
	FlowGrievance      Flow = "grievance"
	FlowAppointment    Flow = "appointment"
	FlowTrackStatus    Flow = "track_status"
	FlowAwaitingNext   Flow = "awaiting_next_action"
)

// Step is a flow-scoped sub-state awaiting one specific piece of input.
type Step string

const (
	StepNone Step = ""

	StepGrievanceName        Step = "grievance_name"
	StepGrievanceDepartment  Step = "grievance_department"
	StepGrievanceDescription Step = "grievance_description"
	StepGrievancePhoto       Step = "grievance_photo"
	StepGrievanceConfirm     Step = "grievance_confirm"

	StepAppointmentDepartment Step = "appointment_department"
	StepAppointmentName       Step = "appointment_name"
	StepAppointmentPurpose    Step = "appointment_purpose"
	StepAppointmentDate       Step = "appointment_date"
	StepAppointmentTime       Step = "appointment_time"
	StepAppointmentConfirm    Step = "appointment_confirm"

	StepTrackReference Step = "track_reference"
)

// flowSteps maps each flow to its valid step set. FlowNone has no steps.
var flowSteps = map[Flow]map[Step]struct{}{
	FlowLanguageSelect: {StepNone: {}},
	FlowMainMenu:       {StepNone: {}},
	FlowGrievance: {
		StepGrievanceName:        {},
		StepGrievanceDepartment:  {},
		StepGrievanceDescription: {},
		StepGrievancePhoto:       {},
		StepGrievanceConfirm:     {},
	},
	FlowAppointment: {
		StepAppointmentDepartment: {},
		StepAppointmentName:       {},
		StepAppointmentPurpose:    {},
		StepAppointmentDate:       {},
		StepAppointmentTime:       {},
		StepAppointmentConfirm:    {},
	},
	FlowTrackStatus:  {StepTrackReference: {}},
	FlowAwaitingNext: {StepNone: {}},
}

// ValidStep reports whether step belongs to flow's step set.
func ValidStep(flow Flow, step Step) bool {
	if flow == FlowNone {
		return step == StepNone
	}
	steps, ok := flowSteps[flow]
	if !ok {
		return false
	}
	_, ok = steps[step]
	return ok
}

// Session is the conversation state for one citizen, keyed by phone number.
type Session struct {
	Key            string            `json:"key"`
	Language       string            `json:"language,omitempty"`
	Flow           Flow              `json:"flow,omitempty"`
	Step           Step              `json:"step,omitempty"`
	Collected      map[string]string `json:"collected,omitempty"`
	LastActivityAt time.Time         `json:"last_activity_at"`
}

// New returns a fresh session for the given key.
func New(key string, now time.Time) *Session {
	return &Session{
		Key:            key,
		Collected:      map[string]string{},
		LastActivityAt: now,
	}
}

// Clone returns a deep copy so transitions never mutate the stored session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	collected := make(map[string]string, len(s.Collected))
	for k, v := range s.Collected {
		collected[k] = v
	}
	clone := *s
	clone.Collected = collected
	return &clone
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	if s == nil {
		return true
	}
	return now.Sub(s.LastActivityAt) >= ttl
}
