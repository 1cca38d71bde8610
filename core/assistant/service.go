package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/report"
	"github.com/trezcool/edutrack/core/user"
)

const (
	genericErrorMsg      = "Lo siento, ocurrió un error al procesar tu mensaje. Intenta nuevamente."
	emptyMessageMsg      = "Escribe un mensaje para que pueda ayudarte."
	cancelledMsg         = "Operación cancelada. ¿En qué más puedo ayudarte?"
	adminOnlyMsg         = "Solo los administradores pueden crear usuarios y cursos."
	reportsForbiddenMsg  = "Los reportes solo están disponibles para administradores y profesores."
	downloadDeclinedMsg  = "De acuerdo, no descargaré el reporte. ¿En qué más puedo ayudarte?"
	downloadQuestionMsg  = "¿Deseas descargar el reporte en PDF? Responde \"sí\" para obtener el enlace de descarga."
	downloadLinkTemplate = "Aquí tienes el enlace de descarga del %s: %s"
)

var (
	NowFunc = time.Now // mockable

	// downloadConfirmRe finds a go-ahead for the download anywhere in a message.
	downloadConfirmRe = regexp.MustCompile(`\b(?:si|claro|ok|dale|descargar|descargarlo|descargarla|descargalo|descargala|bajar|bajarlo)\b`)
)

type (
	// Response is the answer of the assistant to a chat message.
	Response struct {
		Success         bool          `json:"success"`
		Message         string        `json:"message"`
		ActionResult    *ActionResult `json:"actionResult,omitempty"`
		NeedsMoreData   bool          `json:"needsMoreData,omitempty"`
		CurrentIntent   Intent        `json:"currentIntent,omitempty"`
		CurrentEntities Entities      `json:"currentEntities,omitempty"`
	}

	// Answerer answers messages no action handles.
	Answerer interface {
		Ask(ctx context.Context, prompt string, intent Intent, e Entities, message string) string
	}

	// Service runs the conversation: it reads a message, resolves what the caller wants across turns,
	// asks for missing data and triggers actions.
	Service struct {
		store    StateStore
		actions  Actions
		answerer Answerer
		logger   core.Logger
		shortLen int
	}
)

func NewService(conf *core.Config, store StateStore, actions Actions, answerer Answerer, logger core.Logger) *Service {
	return &Service{
		store:    store,
		actions:  actions,
		answerer: answerer,
		logger:   logger,
		shortLen: conf.Assistant.ShortMessageLen,
	}
}

// ProcessChatMessage answers message for callerID, whose coarse role is role (student|teacher|admin).
// It never fails: errors are reported through the response.
func (svc *Service) ProcessChatMessage(ctx context.Context, message, callerID, role string) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			svc.logger.Error(fmt.Sprintf("assistant.ProcessChatMessage: panic: %v", r), map[string]interface{}{"callerId": callerID})
			resp = Response{Message: genericErrorMsg}
		}
	}()

	message = strings.TrimSpace(message)
	if message == "" {
		return Response{Message: emptyMessageMsg}
	}

	unlock := svc.store.Lock(callerID)
	defer unlock()

	stored, hasStored := svc.store.Get(callerID)
	if hasStored && stored.Phase.Pending() && isCancel(message) {
		svc.store.Delete(callerID)
		return Response{Success: true, Message: cancelledMsg, CurrentIntent: IntentGeneralQuery}
	}

	t := turn{
		message:    message,
		short:      isShort(message, svc.shortLen),
		entities:   Extract(message),
		classified: Classify(message),
	}
	res := resolveTurn(t, stored, hasStored)

	var (
		o    outcome
		last *report.Result
	)
	switch {
	case res.intent.IsCreation():
		resp, o = svc.handleCreation(ctx, t, res, role)
	case res.intent.IsReport():
		resp, o, last = svc.handleReport(ctx, t, res, stored, role)
	default:
		resp, o = svc.answer(ctx, t, res, role), outcomeAnswered
	}

	st := checkpoint(res.intent, o, resp.CurrentEntities, last, NowFunc().UTC())
	if persists(st, o, res.continued, resp.CurrentEntities) {
		svc.store.Put(callerID, st)
	}
	return resp
}

func (svc *Service) handleCreation(ctx context.Context, t turn, res resolution, role string) (Response, outcome) {
	intent, e := res.intent, res.entities
	if role != user.KindAdmin {
		return Response{Message: adminOnlyMsg, CurrentIntent: intent, CurrentEntities: e}, outcomeAnswered
	}

	if hasRequired(intent, e) && isDismissal(t.message) {
		e.SetFlag(FieldAllFieldsProvided, true)
	}
	if prompt := BuildPrompt(intent, e); prompt != "" {
		o := outcomeNeedsRequired
		if hasRequired(intent, e) {
			o = outcomeNeedsOptional
		}
		return Response{Success: true, Message: prompt, NeedsMoreData: true, CurrentIntent: intent, CurrentEntities: e}, o
	}

	var result ActionResult
	if intent == IntentCreateUser {
		result = svc.actions.CreateUser(ctx, e)
	} else {
		result = svc.actions.CreateCourse(ctx, e)
	}
	if !result.Success {
		return Response{Message: result.Message, ActionResult: &result, CurrentIntent: intent, CurrentEntities: e}, outcomeFailed
	}

	if intent == IntentCreateUser {
		e.SetFlag(FieldUserCreationCompleted, true)
	}
	return Response{Success: true, Message: result.Message, ActionResult: &result, CurrentIntent: intent, CurrentEntities: e}, outcomeCreated
}

func (svc *Service) handleReport(ctx context.Context, t turn, res resolution, stored State, role string) (Response, outcome, *report.Result) {
	intent, e := res.intent, res.entities
	if role != user.KindAdmin && role != user.KindTeacher {
		return Response{Message: reportsForbiddenMsg, CurrentIntent: intent, CurrentEntities: e}, outcomeAnswered, nil
	}

	confirming := res.continued && stored.Phase == PhaseAwaitingReportConfirmation && stored.LastReport != nil
	if confirming {
		switch {
		case isNegative(t.message) || isDismissal(t.message):
			return Response{Success: true, Message: downloadDeclinedMsg, CurrentIntent: intent}, outcomeAnswered, nil
		case isAffirmative(t.message) || t.entities.Flag(FieldDownloadRequested):
			return downloadResponse(*stored.LastReport, e), outcomeDownloaded, nil
		}
	}

	// "no" to the filters prompt, or the filters themselves: generate without asking again.
	answeringFilters := res.continued && stored.Phase == PhaseAwaitingReportFilters
	download := e.Flag(FieldDownloadRequested) && downloadConfirmRe.MatchString(fold(t.message))
	if !answeringFilters && !download {
		if prompt := BuildPrompt(intent, e); prompt != "" {
			return Response{Success: true, Message: prompt, NeedsMoreData: true, CurrentIntent: intent, CurrentEntities: e}, outcomeNeedsFilters, nil
		}
	}

	typ := reportType(intent, e)
	result := svc.actions.GenerateReport(ctx, typ, reportFilters(e))
	if !result.Success {
		return Response{Message: result.Message, ActionResult: &result, CurrentIntent: intent, CurrentEntities: e}, outcomeFailed, nil
	}

	last := &report.Result{Type: result.ReportType, FileName: result.FileName, DownloadURL: result.DownloadURL}
	if download {
		resp := downloadResponse(*last, e)
		resp.ActionResult = &result
		return resp, outcomeDownloaded, nil
	}
	return Response{
		Success:         true,
		Message:         result.Message + "\n\n" + downloadQuestionMsg,
		ActionResult:    &result,
		CurrentIntent:   intent,
		CurrentEntities: e,
	}, outcomeReportReady, last
}

func downloadResponse(r report.Result, e Entities) Response {
	result := ActionResult{
		Success:     true,
		Message:     fmt.Sprintf(downloadLinkTemplate, strings.ToLower(r.Type.Title()), r.DownloadURL),
		ReportType:  r.Type,
		FileName:    r.FileName,
		DownloadURL: r.DownloadURL,
	}
	return Response{
		Success:         true,
		Message:         result.Message,
		ActionResult:    &result,
		CurrentIntent:   IntentDownloadReport,
		CurrentEntities: e,
	}
}

func (svc *Service) answer(ctx context.Context, t turn, res resolution, role string) Response {
	prompt := fmt.Sprintf("El usuario tiene el rol de %s.", user.KindName(role))
	return Response{
		Success:         true,
		Message:         svc.answerer.Ask(ctx, prompt, res.intent, res.entities, t.message),
		CurrentIntent:   res.intent,
		CurrentEntities: res.entities,
	}
}

// reportType maps a report intent to its report type; a generic request uses the type it names, or general.
func reportType(intent Intent, e Entities) report.Type {
	switch intent {
	case IntentGenerateAttendanceReport:
		return report.TypeAttendance
	case IntentGenerateGradesReport:
		return report.TypeGrades
	case IntentGeneratePerformanceReport:
		return report.TypePerformance
	}
	if t, ok := report.ParseType(e.Get(FieldReportType)); ok {
		return t
	}
	return report.TypeGeneral
}

func reportFilters(e Entities) report.Filters {
	num := func(f Field) *float64 {
		if n, ok := report.ParseNumber(e.Get(f)); ok {
			return &n
		}
		return nil
	}
	return report.Filters{
		CourseCode:    e.Get(FieldCourseCode),
		CourseName:    e.Get(FieldCourseName),
		StudentID:     e.Get(FieldStudentID),
		StudentName:   e.Get(FieldStudentName),
		StartDate:     e.Get(FieldStartDate),
		EndDate:       e.Get(FieldEndDate),
		MinAttendance: num(FieldMinAttendance),
		MinGrade:      num(FieldMinGrade),
		MaxGrade:      num(FieldMaxGrade),
	}
}
