package office

import "virtual-office-backend/internal/model"

// SampleUsers 데모용 기본 참가자 목록
func SampleUsers() []model.User {
	return []model.User{
		sampleUser("2", "Jane Smith", "UX Designer", "Designing new components", true, true, true, "#9c27b0", 650, 350),
		sampleUser("3", "Bob Johnson", "Developer", "Fixing bugs", true, false, false, "#4caf50", 400, 450),
		sampleUser("4", "Alice Williams", "Project Manager", "In a meeting", true, true, true, "#ff9800", 800, 500),
		sampleUser("5", "Charlie Brown", "QA Engineer", "Out to lunch", false, false, false, "#f44336", 1200, 300),
		sampleUser("6", "Diana Prince", "Marketing", "Creating social media posts", true, true, false, "#00bcd4", 1000, 400),
		sampleUser("7", "Edward Stark", "CEO", "Available", true, false, false, "#795548", 1500, 350),
	}
}

func sampleUser(id, name, role, status string, active, mic, video bool, color string, x, y float64) model.User {
	return model.User{
		ID:             id,
		Name:           name,
		Role:           role,
		Status:         status,
		IsActive:       active,
		IsMicrophoneOn: mic,
		IsVideoOn:      &video,
		Color:          &color,
		Position:       model.Position{X: x, Y: y},
	}
}
