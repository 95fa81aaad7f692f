package controllers

import (
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bachesrosario/baches-api/app/models"
	"github.com/bachesrosario/baches-api/app/repository"
	"github.com/bachesrosario/baches-api/internal/pkg/usercontext"
)

// In-memory repository fakes so handlers can be exercised through
// app.Test without a database.

type fakeUserRepo struct {
	users   map[uint]*models.User
	nextID  uint
	cascade repository.CascadeResult
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		f.users[u.ID] = u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUserRepo) Create(u *models.User) error {
	if u.ID == 0 {
		f.nextID++
		u.ID = f.nextID
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	normalized := models.NormalizeEmail(email)
	for _, u := range f.users {
		if u.Email == normalized {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByVerificationToken(token string) (*models.User, error) {
	for _, u := range f.users {
		if u.VerificationToken != "" && u.VerificationToken == token {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByResetToken(token string) (*models.User, error) {
	for _, u := range f.users {
		if u.ResetToken != "" && u.ResetToken == token {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmailOrGoogleID(email, googleID string) (*models.User, error) {
	normalized := models.NormalizeEmail(email)
	for _, u := range f.users {
		if u.Email == normalized {
			return u, nil
		}
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) EmailTaken(email string, exceptID uint) (bool, error) {
	normalized := models.NormalizeEmail(email)
	for _, u := range f.users {
		if u.Email == normalized && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) Update(u *models.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) ListWithStats(role, search string, offset, limit int) ([]repository.UserWithStats, int64, error) {
	out := make([]repository.UserWithStats, 0, len(f.users))
	for _, u := range f.users {
		if role != "" && u.Role != role {
			continue
		}
		if search != "" && !strings.Contains(u.Email, search) && !strings.Contains(u.Name, search) {
			continue
		}
		out = append(out, repository.UserWithStats{User: *u})
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) GetStatsByUserID(userID uint) (*repository.UserStats, error) {
	return &repository.UserStats{}, nil
}

func (f *fakeUserRepo) DeleteCascade(userID uint) (*repository.CascadeResult, error) {
	if _, ok := f.users[userID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	delete(f.users, userID)
	result := f.cascade
	return &result, nil
}

type fakeReportRepo struct {
	reports map[uint]*models.Report
	votes   map[uint]map[uint]bool
	nextID  uint
}

func newFakeReportRepo(reports ...*models.Report) *fakeReportRepo {
	f := &fakeReportRepo{
		reports: make(map[uint]*models.Report),
		votes:   make(map[uint]map[uint]bool),
	}
	for _, r := range reports {
		f.reports[r.ID] = r
		if r.ID > f.nextID {
			f.nextID = r.ID
		}
	}
	return f
}

func (f *fakeReportRepo) Create(r *models.Report) error {
	if r.ID == 0 {
		f.nextID++
		r.ID = f.nextID
	}
	if r.ModerationStatus == "" {
		r.ModerationStatus = models.ModerationPending
	}
	f.reports[r.ID] = r
	return nil
}

func (f *fakeReportRepo) GetByID(id uint) (*models.Report, error) {
	if r, ok := f.reports[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeReportRepo) Update(r *models.Report) error {
	f.reports[r.ID] = r
	return nil
}

func (f *fakeReportRepo) ListPublic(filter repository.PublicReportFilter) ([]models.Report, error) {
	out := make([]models.Report, 0, len(f.reports))
	for _, r := range f.reports {
		if !r.IsPublic() {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReportRepo) ListAdmin(filter repository.AdminReportFilter) ([]models.Report, int64, error) {
	out := make([]models.Report, 0, len(f.reports))
	for _, r := range f.reports {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.ModerationStatus != "" && r.ModerationStatus != filter.ModerationStatus {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeReportRepo) SystemStats() (*repository.SystemStats, error) {
	return &repository.SystemStats{TotalReports: int64(len(f.reports))}, nil
}

func (f *fakeReportRepo) ToggleVote(reportID, userID uint) (bool, int64, error) {
	if f.votes[reportID] == nil {
		f.votes[reportID] = make(map[uint]bool)
	}
	voted := !f.votes[reportID][userID]
	if voted {
		f.votes[reportID][userID] = true
	} else {
		delete(f.votes[reportID], userID)
	}
	total, err := f.VoteTotal(reportID)
	return voted, total, err
}

func (f *fakeReportRepo) VoteTotal(reportID uint) (int64, error) {
	return int64(len(f.votes[reportID])), nil
}

type fakeCommentRepo struct {
	comments map[uint]*models.Comment
	nextID   uint
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[uint]*models.Comment)}
}

func (f *fakeCommentRepo) Create(cm *models.Comment) error {
	f.nextID++
	cm.ID = f.nextID
	f.comments[cm.ID] = cm
	return nil
}

func (f *fakeCommentRepo) ListByReport(reportID uint) ([]models.Comment, error) {
	out := make([]models.Comment, 0)
	for _, cm := range f.comments {
		if cm.ReportID == reportID {
			out = append(out, *cm)
		}
	}
	return out, nil
}

// installFakes swaps the global repository factory for the given fakes
// for the duration of the test.
func installFakes(t *testing.T, users repository.UserRepository, reports repository.ReportRepository, comments repository.CommentRepository) {
	t.Helper()
	repository.SetGlobalFactory(repository.NewFactoryWithRepositories(&repository.Repositories{
		User:    users,
		Report:  reports,
		Comment: comments,
	}))
	t.Cleanup(func() {
		repository.SetGlobalFactory(nil)
	})
}

// testApp builds a fiber app whose requests carry the given user context,
// standing in for the bearer-token middleware.
func testApp(uc usercontext.UserContext) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		usercontext.SetUserContext(c, uc)
		return c.Next()
	})
	return app
}
