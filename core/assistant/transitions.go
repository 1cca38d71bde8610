package assistant

import (
	"time"

	"github.com/trezcool/edutrack/core/report"
)

// turn is what is known about a message before any action runs.
type turn struct {
	message    string
	short      bool
	entities   Entities // extracted from this message only
	classified Intent
}

// resolution is the effective intent & entities of a turn.
type resolution struct {
	intent   Intent
	entities Entities
	// continued is set when the turn answers the pending step of the stored flow.
	continued bool
}

// outcome is how a turn ended; with the intent it decides the next phase.
type outcome int

const (
	outcomeAnswered outcome = iota
	outcomeNeedsRequired
	outcomeNeedsOptional
	outcomeNeedsFilters
	outcomeCreated
	outcomeFailed
	outcomeReportReady
	outcomeDownloaded
)

// resolveTurn merges the turn with the stored state and resolves its effective intent.
// Stored entities are merged into short messages and into turns continuing a pending flow.
func resolveTurn(t turn, stored State, hasStored bool) resolution {
	if !hasStored {
		stored = State{Phase: PhaseIdle, LastEntities: Entities{}}
	}

	merged := t.entities
	if hasStored && (t.short || stored.Phase.Pending()) {
		merged = stored.LastEntities.Merge(t.entities)
	}

	intent, continued := resolveIntent(t, merged, stored)
	res := resolution{intent: intent, entities: t.entities.Clone(), continued: continued}
	if hasStored && (t.short || continued) {
		res.entities = merged.Clone()
	}
	return res
}

// resolveIntent applies, in order:
//  1. name & email known: create_user
//  2. short reply while collecting user fields: create_user
//  3. "no" to the report filters prompt: the stored report intent, without filters
//  4. a reply to a pending step that classifies as a general query: the stored intent
//  5. a general query naming a report type: generate_report
//  6. the classified intent
func resolveIntent(t turn, merged Entities, stored State) (Intent, bool) {
	pending := stored.Phase.Pending()
	switch {
	case merged.Has(FieldName) && merged.Has(FieldEmail):
		return IntentCreateUser, pending && stored.LastIntent == IntentCreateUser
	case t.short && stored.Phase.collectingUser():
		return IntentCreateUser, true
	case isNegative(t.message) && stored.Phase == PhaseAwaitingReportFilters:
		return stored.LastIntent, true
	case pending && t.classified == IntentGeneralQuery && isReply(t):
		return stored.LastIntent, true
	case t.classified == IntentGeneralQuery && t.entities.Has(FieldReportType):
		return IntentGenerateReport, false
	}
	return t.classified, pending && t.classified == stored.LastIntent
}

// isReply reports whether a message reads as an answer to a prompt rather than a new question.
func isReply(t turn) bool {
	return t.short || len(t.entities) > 0 || isAffirmative(t.message) || isDismissal(t.message)
}

func nextPhase(intent Intent, o outcome) Phase {
	switch o {
	case outcomeNeedsRequired, outcomeFailed:
		switch intent {
		case IntentCreateUser:
			return PhaseAwaitingUserFields
		case IntentCreateCourse:
			return PhaseAwaitingCourseFields
		}
	case outcomeNeedsOptional:
		switch intent {
		case IntentCreateUser:
			return PhaseAwaitingOptionalUserFields
		case IntentCreateCourse:
			return PhaseAwaitingOptionalCourseFields
		}
	case outcomeNeedsFilters:
		return PhaseAwaitingReportFilters
	case outcomeReportReady:
		return PhaseAwaitingReportConfirmation
	}
	return PhaseIdle
}

// checkpoint builds the state to store after a turn. Entities are kept while a flow is pending or when
// they identify someone; a completed creation starts afresh.
func checkpoint(intent Intent, o outcome, e Entities, last *report.Result, now time.Time) State {
	st := State{
		LastIntent:   intent,
		LastEntities: Entities{},
		Phase:        nextPhase(intent, o),
		UpdatedAt:    now,
	}
	if st.Phase == PhaseAwaitingReportConfirmation {
		st.LastReport = last
	}
	if o != outcomeCreated && (st.Phase.Pending() || e.HasAny(identifyingFields...)) {
		st.LastEntities = e.Without(FieldDownloadRequested)
	}
	return st
}

// persists reports whether the state of a turn replaces the stored one. Noise turns carrying no
// identifying field leave a pending flow untouched.
func persists(st State, o outcome, continued bool, e Entities) bool {
	switch {
	case st.Phase.Pending(), continued:
		return true
	case o == outcomeCreated, o == outcomeDownloaded:
		return true
	}
	return e.HasAny(identifyingFields...)
}
