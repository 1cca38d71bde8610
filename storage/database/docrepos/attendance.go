package docrepos

import (
	"context"
	"sort"

	"github.com/trezcool/edutrack/core/attendance"
	"github.com/trezcool/edutrack/storage/database/docstore"
)

type attendanceRepository struct {
	repo
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(store docstore.Store) attendance.Repository {
	return &attendanceRepository{repo{store: store}}
}

func (r *attendanceRepository) CreateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	a.ID = newID()
	err := r.insert(ctx, attendanceColl, a.ID, keysOf("day", a.Key()), a)
	if err == docstore.ErrDuplicate {
		return attendance.Attendance{}, attendance.ErrExists
	}
	if err != nil {
		return attendance.Attendance{}, err
	}
	return a, nil
}

func (r *attendanceRepository) GetAttendance(ctx context.Context, id string) (attendance.Attendance, error) {
	var a attendance.Attendance
	if err := r.get(ctx, attendanceColl, id, &a); err != nil {
		return attendance.Attendance{}, notFound(err, attendance.ErrNotFound)
	}
	return a, nil
}

func (r *attendanceRepository) QueryAttendance(ctx context.Context, query *attendance.Query) ([]attendance.Attendance, error) {
	records := make([]attendance.Attendance, 0)
	err := r.list(ctx, attendanceColl,
		func() interface{} { return new(attendance.Attendance) },
		func(item interface{}) {
			if a := *item.(*attendance.Attendance); query.Match(a) {
				records = append(records, a)
			}
		},
	)
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, err
}

func (r *attendanceRepository) UpdateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	switch err := r.update(ctx, attendanceColl, a.ID, keysOf("day", a.Key()), a); err {
	case nil:
		return a, nil
	case docstore.ErrNotFound:
		return attendance.Attendance{}, attendance.ErrNotFound
	case docstore.ErrDuplicate:
		return attendance.Attendance{}, attendance.ErrExists
	default:
		return attendance.Attendance{}, err
	}
}
