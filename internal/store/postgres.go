package store

import (
	"context"
	"errors"
	"fmt"

	"creative-arena-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the relational backend. The gorm handle must be opened with
// TranslateError enabled so unique violations surface as gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func uuidOr(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = uuidOr(user.ID)
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) UpdateUserRole(ctx context.Context, id, role string) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *GormStore) UpdateProfile(ctx context.Context, email string, upd models.ProfileUpdate) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("email = ?", email).First(&user).Error; err != nil {
			return translate(err)
		}
		upd.ApplyTo(&user)
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) CreateContest(ctx context.Context, contest *models.Contest) error {
	contest.ID = uuidOr(contest.ID)
	return translate(s.db.WithContext(ctx).Create(contest).Error)
}

func (s *GormStore) ListContests(ctx context.Context, skip, limit int) ([]models.Contest, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Contest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	contests := []models.Contest{}
	err := s.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset(skip).
		Limit(limit).
		Find(&contests).Error
	if err != nil {
		return nil, 0, err
	}
	return contests, total, nil
}

func (s *GormStore) listContestsWhere(ctx context.Context, query string, args ...interface{}) ([]models.Contest, error) {
	contests := []models.Contest{}
	if err := s.db.WithContext(ctx).Where(query, args...).Order("created_at ASC, id ASC").Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

func (s *GormStore) ListContestsByStatus(ctx context.Context, status string) ([]models.Contest, error) {
	return s.listContestsWhere(ctx, "status = ?", status)
}

func (s *GormStore) ListContestsByCreator(ctx context.Context, email string) ([]models.Contest, error) {
	return s.listContestsWhere(ctx, "created_by = ?", email)
}

func (s *GormStore) GetContest(ctx context.Context, id string) (*models.Contest, error) {
	var contest models.Contest
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&contest).Error; err != nil {
		return nil, translate(err)
	}
	return &contest, nil
}

func (s *GormStore) GetContestsByIDs(ctx context.Context, ids []string) ([]models.Contest, error) {
	if len(ids) == 0 {
		return []models.Contest{}, nil
	}
	return s.listContestsWhere(ctx, "id IN ?", ids)
}

func (s *GormStore) mutateContest(ctx context.Context, id string, mutate func(*models.Contest)) (*models.Contest, error) {
	var contest models.Contest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&contest).Error; err != nil {
			return translate(err)
		}
		mutate(&contest)
		return tx.Save(&contest).Error
	})
	if err != nil {
		return nil, err
	}
	return &contest, nil
}

func (s *GormStore) UpdateContest(ctx context.Context, id string, upd models.ContestUpdate) (*models.Contest, error) {
	return s.mutateContest(ctx, id, upd.ApplyTo)
}

func (s *GormStore) UpdateContestStatus(ctx context.Context, id, status string) (*models.Contest, error) {
	return s.mutateContest(ctx, id, func(c *models.Contest) { c.Status = status })
}

func (s *GormStore) DeleteContest(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Contest{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete contest: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PopularContests ranks in memory because participants are stored as a JSON column.
func (s *GormStore) PopularContests(ctx context.Context, limit int) ([]models.Contest, error) {
	approved, err := s.ListContestsByStatus(ctx, models.ContestStatusApproved)
	if err != nil {
		return nil, err
	}
	return models.RankByParticipants(approved, limit), nil
}

func (s *GormStore) RecordPayment(ctx context.Context, payment *models.Payment) error {
	payment.ID = uuidOr(payment.ID)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return translate(err)
		}

		var contest models.Contest
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", payment.ContestID).First(&contest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !contest.AddParticipant(payment.Email) {
			return nil
		}
		return tx.Save(&contest).Error
	})
}

func (s *GormStore) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&payment).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (s *GormStore) FindPaidPayment(ctx context.Context, contestID, email string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Where("contest_id = ? AND email = ? AND status = ?", contestID, email, models.PaymentStatusPaid).
		First(&payment).Error
	if err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (s *GormStore) ListPaidPaymentsByEmail(ctx context.Context, email string) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := s.db.WithContext(ctx).
		Where("email = ? AND status = ?", email, models.PaymentStatusPaid).
		Order("paid_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *GormStore) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	submission.ID = uuidOr(submission.ID)
	return translate(s.db.WithContext(ctx).Create(submission).Error)
}

func (s *GormStore) FindSubmission(ctx context.Context, contestID, email string) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.WithContext(ctx).
		Where("contest_id = ? AND participant_email = ?", contestID, email).
		First(&submission).Error
	if err != nil {
		return nil, translate(err)
	}
	return &submission, nil
}

func (s *GormStore) listSubmissionsWhere(ctx context.Context, query string, args ...interface{}) ([]models.Submission, error) {
	submissions := []models.Submission{}
	if err := s.db.WithContext(ctx).Where(query, args...).Order("submitted_at ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (s *GormStore) ListSubmissionsByContest(ctx context.Context, contestID string) ([]models.Submission, error) {
	return s.listSubmissionsWhere(ctx, "contest_id = ?", contestID)
}

func (s *GormStore) ListSubmissionsByContests(ctx context.Context, contestIDs []string) ([]models.Submission, error) {
	if len(contestIDs) == 0 {
		return []models.Submission{}, nil
	}
	return s.listSubmissionsWhere(ctx, "contest_id IN ?", contestIDs)
}

func (s *GormStore) ListWinningSubmissions(ctx context.Context, email string) ([]models.Submission, error) {
	return s.listSubmissionsWhere(ctx, "participant_email = ? AND is_winner = ?", email, true)
}

func (s *GormStore) CountSubmissions(ctx context.Context, email string) (int64, int64, error) {
	var participated, won int64
	db := s.db.WithContext(ctx).Model(&models.Submission{})
	if err := db.Where("participant_email = ?", email).Count(&participated).Error; err != nil {
		return 0, 0, err
	}
	db = s.db.WithContext(ctx).Model(&models.Submission{})
	if err := db.Where("participant_email = ? AND is_winner = ?", email, true).Count(&won).Error; err != nil {
		return 0, 0, err
	}
	return participated, won, nil
}

func (s *GormStore) DeclareWinner(ctx context.Context, contestID, submissionID string) (*models.Submission, error) {
	var winner models.Submission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND contest_id = ?", submissionID, contestID).
			First(&winner).Error
		if err != nil {
			return translate(err)
		}

		err = tx.Model(&models.Submission{}).
			Where("contest_id = ?", contestID).
			Updates(map[string]interface{}{"is_winner": false, "status": models.SubmissionStatusRejected}).Error
		if err != nil {
			return fmt.Errorf("failed to reset submissions: %w", err)
		}

		err = tx.Model(&models.Submission{}).
			Where("id = ?", submissionID).
			Updates(map[string]interface{}{"is_winner": true, "status": models.SubmissionStatusWinner}).Error
		if err != nil {
			return fmt.Errorf("failed to mark winner: %w", err)
		}

		winner.IsWinner = true
		winner.Status = models.SubmissionStatusWinner
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &winner, nil
}

var _ Store = (*GormStore)(nil)
