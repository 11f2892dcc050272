package persistence

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/getsocialkit/socialkit/simulate"
)

// PostTaskRecord is one simulate publish task as last reported by the
// service, through either the synchronous answer, a query or the
// callback.
type PostTaskRecord struct {
	ID          uint   `gorm:"primarykey"`
	TaskID      string `gorm:"uniqueIndex;size:64"`
	Media       string `gorm:"size:32"`
	Account     string `gorm:"size:128"`
	Title       string
	Status      int
	Msg         string
	PostURL     string
	CallbackURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BindAttemptRecord is one account binding attempt and its latest
// progress.
type BindAttemptRecord struct {
	ID          uint   `gorm:"primarykey"`
	TaskID      string `gorm:"uniqueIndex;size:64"`
	UserID      string `gorm:"index;size:64"`
	Account     string `gorm:"size:128"`
	Media       string `gorm:"size:32"`
	SocialID    string `gorm:"size:128"`
	Status      int
	ErrCode     int
	Msg         string
	DisplayName string
	PageURL     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store persists task and binding state over gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&PostTaskRecord{}, &BindAttemptRecord{})
}

// SavePostTask inserts or refreshes the record for a publish task.
func (s *Store) SavePostTask(task *simulate.PostTask, media, account, title string) error {
	record := PostTaskRecord{
		TaskID:      task.TaskID,
		Media:       media,
		Account:     account,
		Title:       title,
		Status:      int(task.Status),
		Msg:         task.Msg,
		PostURL:     task.PostURL,
		CallbackURL: task.CallbackURL,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "msg", "post_url", "updated_at"}),
	}).Create(&record).Error
}

// UpdatePostTask applies a callback or query outcome to a stored task.
// An unknown task id is not an error: callbacks may arrive for tasks
// submitted by another node.
func (s *Store) UpdatePostTask(task *simulate.PostTask) error {
	result := s.db.Model(&PostTaskRecord{}).
		Where("task_id = ?", task.TaskID).
		Updates(map[string]any{
			"status":   int(task.Status),
			"msg":      task.Msg,
			"post_url": task.PostURL,
		})
	return result.Error
}

// GetPostTask loads a publish task by its id. A missing task returns
// (nil, nil).
func (s *Store) GetPostTask(taskID string) (*PostTaskRecord, error) {
	var record PostTaskRecord
	err := s.db.First(&record, "task_id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SaveBindAttempt inserts or refreshes a binding attempt from its
// latest BindInfo.
func (s *Store) SaveBindAttempt(info *simulate.BindInfo) error {
	record := BindAttemptRecord{
		TaskID:      info.TaskID,
		UserID:      info.UserID,
		Account:     info.Account,
		Media:       info.Media,
		SocialID:    info.SocialID,
		Status:      int(info.Status),
		ErrCode:     int(info.ErrCode),
		Msg:         info.Msg,
		DisplayName: info.DisplayName,
		PageURL:     info.PageURL,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "task_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"social_id", "status", "err_code", "msg", "display_name", "page_url", "updated_at",
		}),
	}).Create(&record).Error
}

// GetBindAttempt loads a binding attempt by its task id. A missing
// attempt returns (nil, nil).
func (s *Store) GetBindAttempt(taskID string) (*BindAttemptRecord, error) {
	var record BindAttemptRecord
	err := s.db.First(&record, "task_id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListBindAttempts returns all binding attempts of one host user.
func (s *Store) ListBindAttempts(userID string) ([]BindAttemptRecord, error) {
	var records []BindAttemptRecord
	if err := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
