package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/edutrack/apps/api/echo"
	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/assistant"
	"github.com/trezcool/edutrack/core/attendance"
	"github.com/trezcool/edutrack/core/coursework"
	"github.com/trezcool/edutrack/core/report"
	"github.com/trezcool/edutrack/core/school"
	"github.com/trezcool/edutrack/core/user"
	emailsvc "github.com/trezcool/edutrack/services/email"
	llmsvc "github.com/trezcool/edutrack/services/llm"
	logsvc "github.com/trezcool/edutrack/services/logger"
	pdfsvc "github.com/trezcool/edutrack/services/pdf"
	"github.com/trezcool/edutrack/storage/database"
	"github.com/trezcool/edutrack/storage/database/docrepos"
	"github.com/trezcool/edutrack/storage/database/docstore"
	inmem "github.com/trezcool/edutrack/storage/database/inmem"
	pgdoc "github.com/trezcool/edutrack/storage/database/pgdoc"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Storage is the document store of the app. DB is nil with the in-memory engine.
type Storage struct {
	Store docstore.Store
	DB    *sqlx.DB
}

func (s Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	if conf.Debug {
		logger.Enable(false)
	}
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	if conf.Debug {
		logger.Enable(false)
	}
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	if conf.Database.InMemory() {
		loggerParam.Logger.Info("using in-memory storage")
		return Storage{Store: inmem.NewStore()}
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Storage{Store: pgdoc.NewStore(db), DB: db}
}

func newStore(s Storage) docstore.Store {
	return s.Store
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func newCourseworkService(repo coursework.Repository, schoolSvc *school.Service) *coursework.Service {
	return coursework.NewService(repo, schoolSvc)
}

func newAttendanceService(repo attendance.Repository, schoolSvc *school.Service) *attendance.Service {
	return attendance.NewService(repo, schoolSvc)
}

func newReportService(
	conf *core.Config,
	logger core.Logger,
	usrSvc *user.Service,
	schoolSvc *school.Service,
	cwSvc *coursework.Service,
	attSvc *attendance.Service,
) *report.Service {
	return report.NewService(conf, usrSvc, schoolSvc, cwSvc, attSvc, pdfsvc.NewRenderer(conf.AppName), logger)
}

// newCompleter returns a nil Completer when the LLM is disabled, so the assistant answers from the knowledge base.
func newCompleter(conf *core.Config) assistant.Completer {
	if client := llmsvc.NewOpenAIClient(conf); client != nil {
		return client
	}
	return nil
}

func newAssistant(
	conf *core.Config,
	logger core.Logger,
	usrSvc *user.Service,
	schoolSvc *school.Service,
	reportSvc *report.Service,
	validate *validator.Validate,
	translator ut.Translator,
	llm assistant.Completer,
	kb *assistant.KnowledgeBase,
) *assistant.Service {
	return assistant.NewService(
		conf,
		assistant.NewMemoryStore(conf.Assistant.StateTTL),
		assistant.NewExecutor(usrSvc, schoolSvc, reportSvc, validate, translator, logger),
		assistant.NewBridge(llm, kb, conf.Assistant.LLMTimeout, logger),
		logger,
	)
}

type serverParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	UserSvc       *user.Service
	SchoolSvc     *school.Service
	CourseworkSvc *coursework.Service
	AttendanceSvc *attendance.Service
	ReportSvc     *report.Service
	Assistant     *assistant.Service
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		SchoolSvc:     p.SchoolSvc,
		CourseworkSvc: p.CourseworkSvc,
		AttendanceSvc: p.AttendanceSvc,
		ReportSvc:     p.ReportSvc,
		Assistant:     p.Assistant,
	})
}

type NewConfigFunc func() *core.Config

// New returns a new dependency injection dig.Container. newConf defaults to core.NewConfig.
func New(newConf ...NewConfigFunc) *dig.Container {
	c := dig.New()

	confFn := NewConfigFunc(core.NewConfig)
	if len(newConf) > 0 {
		confFn = newConf[0]
	}

	must(c.Provide(func() *core.Config { return confFn() }))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newStore))
	must(c.Provide(newEmailService))
	must(c.Provide(docrepos.NewUserRepository))
	must(c.Provide(docrepos.NewSchoolRepository))
	must(c.Provide(docrepos.NewCourseworkRepository))
	must(c.Provide(docrepos.NewAttendanceRepository))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(school.NewService))
	must(c.Provide(newCourseworkService))
	must(c.Provide(newAttendanceService))
	must(c.Provide(newReportService))
	must(c.Provide(newCompleter))
	must(c.Provide(assistant.LoadKnowledgeBase))
	must(c.Provide(newAssistant))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
