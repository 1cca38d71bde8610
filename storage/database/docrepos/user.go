package docrepos

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/user"
	"github.com/trezcool/edutrack/storage/database/docstore"
)

// userDoc carries the password hash, which user.User hides from JSON.
type userDoc struct {
	user.User
	PasswordHash []byte `json:"password_hash"`
}

func toUser(d *userDoc) user.User {
	usr := d.User
	usr.PasswordHash = d.PasswordHash
	return usr
}

type userRepository struct {
	repo
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(store docstore.Store) user.Repository {
	return &userRepository{repo{store: store}}
}

func userKeys(usr user.User) []string {
	return keysOf("username", usr.Username, "email", usr.Email)
}

func (r *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	isExcluded := func(id string) bool {
		for _, u := range excludedUsers {
			if u.ID == id {
				return true
			}
		}
		return false
	}

	var d userDoc
	if username != "" {
		if err := r.getByKey(ctx, usersColl, "username:"+username, &d); err == nil && !isExcluded(d.ID) {
			return user.ErrUsernameExists
		} else if err != nil && err != docstore.ErrNotFound {
			return err
		}
	}
	if email != "" {
		if err := r.getByKey(ctx, usersColl, "email:"+email, &d); err == nil && !isExcluded(d.ID) {
			return user.ErrEmailExists
		} else if err != nil && err != docstore.ErrNotFound {
			return err
		}
	}
	return nil
}

func (r *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := r.CheckUniqueness(ctx, usr.Username, usr.Email); err != nil {
		return user.User{}, err
	}
	usr.ID = newID()
	if usr.Roles == nil {
		usr.Roles = []string{}
	}
	err := r.insert(ctx, usersColl, usr.ID, userKeys(usr), userDoc{User: usr, PasswordHash: usr.PasswordHash})
	if err == docstore.ErrDuplicate {
		return user.User{}, user.ErrEmailExists
	}
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (r *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var d userDoc
	var err error
	switch {
	case filter.ID != "":
		err = r.get(ctx, usersColl, filter.ID, &d)
	case filter.Email != "":
		err = r.getByKey(ctx, usersColl, "email:"+filter.Email, &d)
	case filter.UsernameOrEmail != "":
		if err = r.getByKey(ctx, usersColl, "username:"+filter.UsernameOrEmail, &d); err == docstore.ErrNotFound {
			err = r.getByKey(ctx, usersColl, "email:"+filter.UsernameOrEmail, &d)
		}
	default:
		err = docstore.ErrNotFound
	}
	if err != nil {
		return user.User{}, notFound(err, user.ErrNotFound)
	}
	return toUser(&d), nil
}

func (r *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	users := make([]user.User, 0)
	err := r.list(ctx, usersColl,
		func() interface{} { return new(userDoc) },
		func(item interface{}) {
			if usr := toUser(item.(*userDoc)); filter.Match(usr) {
				users = append(users, usr)
			}
		},
	)
	if err != nil {
		return nil, err
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	sortUsers(users, ordering)
	return users, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := r.update(ctx, usersColl, usr.ID, userKeys(usr), userDoc{User: usr, PasswordHash: usr.PasswordHash})
	switch err {
	case nil:
		return usr, nil
	case docstore.ErrNotFound:
		return user.User{}, user.ErrNotFound
	case docstore.ErrDuplicate:
		return user.User{}, user.ErrEmailExists
	default:
		return user.User{}, err
	}
}

func (r *userRepository) DeleteUsers(ctx context.Context, ids ...string) error {
	return r.store.Delete(ctx, usersColl, ids...)
}

// sortUsers sorts by the given orderings; unknown fields are ignored.
func sortUsers(users []user.User, ordering []core.DBOrdering) {
	cmp := func(a, b user.User, field string) int {
		switch field {
		case "name":
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case "username":
			return strings.Compare(a.Username, b.Username)
		case "email":
			return strings.Compare(a.Email, b.Email)
		case "is_active":
			return compareBool(a.IsActive, b.IsActive)
		case "created_at":
			return compareTime(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			return compareTime(a.UpdatedAt, b.UpdatedAt)
		case "last_login":
			return compareTime(a.LastLogin, b.LastLogin)
		}
		return 0
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			c := cmp(users[i], users[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
