package inmemdb

import (
	"sort"
	"strings"
	"time"

	"github.com/trezcool/convivencia/core"
	"github.com/trezcool/convivencia/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, copyUser(*u))
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}

	for _, usr := range repo.query() {
		if excluded[usr.ID] {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored := copyUser(usr)
	repo.db.table[usr.ID] = &stored
	return copyUser(stored), nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return copyUser(*usr), nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if username == "" {
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.query() {
		if (usr.Username == username) || (usr.Email == username) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(filter user.QueryFilter, orderings []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	users := make([]user.User, 0)
	for _, u := range repo.query() {
		// users with search keyword matching any Name, Username or Email ?
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Name), search) {
			continue
		}
		// users with any of the specified roles
		if len(filter.Roles) > 0 && !hasAnyRole(u, filter.Roles) {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		users = append(users, u)
	}

	sortUsers(users, orderings)
	return users, nil
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	stored := copyUser(usr)
	repo.db.table[usr.ID] = &stored
	return copyUser(stored), nil
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func copyUser(u user.User) user.User {
	if u.Roles != nil {
		u.Roles = append([]string(nil), u.Roles...)
	}
	if u.PasswordHash != nil {
		u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	}
	return u
}

func hasAnyRole(u user.User, roles []string) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// sortUsers mirrors the SQL repositories: newest first unless orderings say otherwise, ties broken by ID.
func sortUsers(users []user.User, orderings []core.DBOrdering) {
	var ords []core.DBOrdering
	for _, ord := range orderings {
		if _, ok := userFieldCmp[ord.Field]; ok {
			ords = append(ords, ord)
		}
	}
	if len(ords) == 0 {
		ords = []core.DBOrdering{{Field: "created_at"}}
	}

	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ords {
			c := userFieldCmp[ord.Field](users[i], users[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return users[i].ID < users[j].ID
	})
}

var userFieldCmp = map[string]func(a, b user.User) int{
	"name":       func(a, b user.User) int { return strings.Compare(a.Name, b.Name) },
	"username":   func(a, b user.User) int { return strings.Compare(a.Username, b.Username) },
	"email":      func(a, b user.User) int { return strings.Compare(a.Email, b.Email) },
	"is_active":  func(a, b user.User) int { return compareBool(a.IsActive, b.IsActive) },
	"created_at": func(a, b user.User) int { return compareTime(a.CreatedAt, b.CreatedAt) },
	"updated_at": func(a, b user.User) int { return compareTime(a.UpdatedAt, b.UpdatedAt) },
	"last_login": func(a, b user.User) int { return compareTime(a.LastLogin, b.LastLogin) },
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
