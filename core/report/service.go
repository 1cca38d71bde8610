package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/attendance"
	"github.com/trezcool/edutrack/core/coursework"
	"github.com/trezcool/edutrack/core/school"
	"github.com/trezcool/edutrack/core/user"
)

var (
	// errors
	ErrUnknownType = errors.New("tipo de reporte no válido")
	ErrNotFound    = errors.New("reporte no encontrado")

	NowFunc = time.Now // mockable
)

const fileExt = ".pdf"

type (
	// Renderer writes a Document in its output format (PDF).
	Renderer interface {
		Render(doc Document, w io.Writer) error
	}

	UserSource interface {
		Query(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error)
	}

	SchoolSource interface {
		QueryStudents(ctx context.Context) ([]school.Student, error)
		QueryTeachers(ctx context.Context) ([]school.Teacher, error)
		QueryCourses(ctx context.Context, query *school.CourseQuery) ([]school.Course, error)
		QueryBlocks(ctx context.Context) ([]school.Block, error)
	}

	CourseworkSource interface {
		QueryAssignments(ctx context.Context, courseID string) ([]coursework.Assignment, error)
		QuerySubmissions(ctx context.Context, query *coursework.SubmissionQuery) ([]coursework.Submission, error)
	}

	AttendanceSource interface {
		Query(ctx context.Context, query *attendance.Query) ([]attendance.Attendance, error)
	}

	Service struct {
		conf       *core.Config
		users      UserSource
		school     SchoolSource
		coursework CourseworkSource
		attendance AttendanceSource
		renderer   Renderer
		logger     core.Logger
	}
)

func NewService(
	conf *core.Config,
	users UserSource,
	schoolSrc SchoolSource,
	courseworkSrc CourseworkSource,
	attendanceSrc AttendanceSource,
	renderer Renderer,
	logger core.Logger,
) *Service {
	return &Service{
		conf:       conf,
		users:      users,
		school:     schoolSrc,
		coursework: courseworkSrc,
		attendance: attendanceSrc,
		renderer:   renderer,
		logger:     logger,
	}
}

// Generate builds the report of the given type, renders it into the reports directory and returns its handle.
// The whole operation is bounded by the configured reports timeout.
func (svc *Service) Generate(ctx context.Context, typ Type, filters Filters) (Result, error) {
	if _, ok := typeTitles[typ]; !ok {
		return Result{}, ErrUnknownType
	}
	if svc.conf.Reports.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.conf.Reports.Timeout)
		defer cancel()
	}

	doc, err := svc.Build(ctx, typ, filters)
	if err != nil {
		return Result{}, pkgerrors.Wrap(err, "building report")
	}

	done := make(chan error, 1)
	fileName := svc.fileName(typ)
	go func() { done <- svc.write(fileName, doc) }()

	select {
	case err := <-done:
		if err != nil {
			return Result{}, pkgerrors.Wrap(err, "rendering report")
		}
	case <-ctx.Done():
		return Result{}, pkgerrors.Wrap(ctx.Err(), "rendering report")
	}

	svc.logger.Info("report generated", map[string]interface{}{"type": typ, "file": fileName})
	return Result{
		Type:        typ,
		FileName:    fileName,
		DownloadURL: path.Join(svc.conf.Reports.DownloadPath, fileName),
	}, nil
}

func (svc *Service) fileName(typ Type) string {
	return fmt.Sprintf("reporte_%s_%s%s", typ, NowFunc().UTC().Format("20060102_150405.000000000"), fileExt)
}

func (svc *Service) write(fileName string, doc Document) (err error) {
	if err := os.MkdirAll(svc.conf.Reports.Dir, 0o755); err != nil {
		return err
	}
	p := filepath.Join(svc.conf.Reports.Dir, fileName)
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
		if err != nil {
			_ = os.Remove(p)
		}
	}()
	return svc.renderer.Render(doc, f)
}

// Path returns the location of a generated report file. Names that escape the reports directory are rejected.
func (svc *Service) Path(fileName string) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) || !strings.HasSuffix(fileName, fileExt) {
		return "", ErrNotFound
	}
	p := filepath.Join(svc.conf.Reports.Dir, fileName)
	if info, err := os.Stat(p); err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return p, nil
}
