package dimension

import (
	"errors"
	"log"
	"time"

	"virtual-office-backend/internal/model"
)

func strPtr(s string) *string { return &s }

// sampleDimensions 데모용 차원 (기본 차원 아래에 배치). createdAt 은 하루, 이틀 전.
func sampleDimensions(now time.Time) []model.Dimension {
	return []model.Dimension{
		{
			ID:           "open-plan",
			Name:         "Open Floor Plan",
			Description:  "Collaborative open workspace with minimal walls",
			CreatedAt:    now.Add(-24 * time.Hour),
			UserCount:    3,
			Color:        "#2196f3",
			OfficeConfig: map[string]any{},
			ParentID:     model.DefaultDimensionID,
			Effects:      model.Effects{AvatarEffect: strPtr("glow")},
			Anomalies: []model.Anomaly{
				{AreaID: "open-workspace", Name: "Collaboration Zone", X: 250, Y: 150, Radius: 100, Color: "#2196f3"},
			},
			Portals: []model.Portal{
				{Position: model.Position{X: 1200, Y: 500}, TargetID: "future-office", TargetName: "Future Office", Color: "#2196f3"},
			},
		},
		{
			ID:           "future-office",
			Name:         "Future Office 2030",
			Description:  "Futuristic office with advanced technology",
			CreatedAt:    now.Add(-48 * time.Hour),
			UserCount:    1,
			Color:        "#f44336",
			OfficeConfig: map[string]any{},
			ParentID:     model.DefaultDimensionID,
			Effects:      model.Effects{AvatarEffect: strPtr("pixelated")},
			Anomalies: []model.Anomaly{
				{AreaID: "executive-office", Name: "Time Anomaly", X: 125, Y: 100, Radius: 80, Color: "#f44336"},
			},
			Portals: []model.Portal{
				{Position: model.Position{X: 500, Y: 300}, TargetID: "open-plan", TargetName: "Open Plan", Color: "#f44336"},
			},
			Weather: strPtr("aurora"),
		},
	}
}

// SeedSamples 데모 차원 등록. 이미 있는 ID 는 건너뛴다.
func (m *Manager) SeedSamples() error {
	for _, dim := range sampleDimensions(m.now().UTC()) {
		if _, err := m.Add(dim); err != nil {
			if errors.Is(err, ErrDuplicateID) {
				continue
			}
			return err
		}
		log.Printf("[Dimension] Seeded sample dimension %s", dim.ID)
	}
	return nil
}
