package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"virtual-office-backend/internal/model"
)

var ErrMissingFields = errors.New("name and department are required")

// defaultPhotoURL 사진이 없을 때 사용하는 자리표시 이미지
const defaultPhotoURL = "/placeholder.svg?height=80&width=80"

// EmployeeInput 디렉터리 등록/수정 요청
type EmployeeInput struct {
	Name         string
	Department   string
	Role         string
	Position     *[3]float64
	PhotoURL     string
	Introduction string
	CreatedBy    string
	Status       string
}

// DirectoryService 사원 디렉터리 비즈니스 로직
type DirectoryService struct {
	db *gorm.DB
}

// NewDirectoryService DirectoryService 생성
func NewDirectoryService(db *gorm.DB) *DirectoryService {
	return &DirectoryService{db: db}
}

// List 전체 디렉터리 (생성 순)
func (s *DirectoryService) List(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

// Upsert 같은 작성자의 사람 직원 항목이 있으면 ID 를 유지한 채 갱신, 없으면 생성
func (s *DirectoryService) Upsert(ctx context.Context, in EmployeeInput) (model.Employee, error) {
	if err := in.normalize(); err != nil {
		return model.Employee{}, err
	}

	var result model.Employee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Employee
		err := tx.Where("created_by = ? AND is_ai = ?", in.CreatedBy, false).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			result = model.Employee{ID: newEmployeeID(time.Now())}
			in.apply(&result)
			return tx.Create(&result).Error
		case err != nil:
			return err
		}

		in.apply(&existing)
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		result = existing
		return nil
	})
	if err != nil {
		return model.Employee{}, fmt.Errorf("upsert employee for %s: %w", in.CreatedBy, err)
	}
	return result, nil
}

// SeedAssistants AI 어시스턴트 기본 항목 등록 (이미 있으면 건너뜀)
func (s *DirectoryService) SeedAssistants(ctx context.Context) (int, error) {
	created := 0
	for _, e := range DefaultAssistants() {
		res := s.db.WithContext(ctx).Where(model.Employee{ID: e.ID}).FirstOrCreate(&e)
		if res.Error != nil {
			return created, res.Error
		}
		if res.RowsAffected > 0 {
			created++
			log.Printf("[Directory] Seeded assistant %s (%s)", e.ID, e.Name)
		}
	}
	return created, nil
}

// DefaultAssistants 기본 AI 어시스턴트
func DefaultAssistants() []model.Employee {
	assistant := func(id, name, dept, intro, createdBy string, pos [3]float64) model.Employee {
		e := model.Employee{
			ID:           id,
			Name:         name,
			Department:   dept,
			Role:         "Assistant",
			IsAI:         true,
			PhotoURL:     defaultPhotoURL,
			Introduction: intro,
			CreatedBy:    createdBy,
			Status:       model.UserStatusOnline.String(),
		}
		e.SetCoordinates(pos)
		return e
	}

	return []model.Employee{
		assistant("eve-1", "HR Assistant", "HR", "I'm your HR assistant, ready to help with all HR-related queries.", "user-1", [3]float64{-15, 0.5, -5}),
		assistant("eve-2", "IT Support", "IT", "I provide IT support and troubleshooting assistance.", "user-2", [3]float64{-5, 0.5, -15}),
		assistant("eve-3", "QA Tester", "QA", "I help with quality assurance and testing procedures.", "user-3", [3]float64{5, 0.5, -15}),
	}
}

// normalize 필수 값 검증 + 기본값 채우기
func (in *EmployeeInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Department = strings.TrimSpace(in.Department)
	if in.Name == "" || in.Department == "" {
		return ErrMissingFields
	}
	if in.Role == "" {
		in.Role = "Employee"
	}
	if in.PhotoURL == "" {
		in.PhotoURL = defaultPhotoURL
	}
	if in.Status == "" {
		in.Status = model.UserStatusOnline.String()
	}
	if in.CreatedBy == "" {
		in.CreatedBy = "unknown"
	}
	if in.Position == nil {
		pos := [3]float64{0, 0.5, 0}
		in.Position = &pos
	}
	return nil
}

func (in EmployeeInput) apply(e *model.Employee) {
	e.Name = in.Name
	e.Department = in.Department
	e.Role = in.Role
	e.IsAI = false
	e.PhotoURL = in.PhotoURL
	e.Introduction = in.Introduction
	e.CreatedBy = in.CreatedBy
	e.Status = in.Status
	e.SetCoordinates(*in.Position)
}

// newEmployeeID eve-{밀리초}-{난수}
func newEmployeeID(now time.Time) string {
	return fmt.Sprintf("eve-%d-%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:7])
}
