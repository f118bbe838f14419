package handler

import "github.com/questsupremacy/questd/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Message string                 `json:"message"`
	User    *domain.AccountSummary `json:"user"`
	Token   string                 `json:"token"`
}

type meResponse struct {
	Authenticated bool                   `json:"authenticated"`
	User          *domain.AccountSummary `json:"user"`
}

// --- Game ---

type playerStatsResponse struct {
	Stats           map[domain.Category]domain.Stat `json:"stats"`
	Level           int                             `json:"level"`
	TotalXP         int                             `json:"total_xp"`
	NextLevelXP     int                             `json:"next_level_xp"`
	QuestsCompleted int                             `json:"quests_completed"`
}

// completeQuestRequest accepts the id as quest_id or questId.
type completeQuestRequest struct {
	QuestID      string `json:"quest_id" validate:"required_without=QuestIDCamel"`
	QuestIDCamel string `json:"questId"`
}

func (r completeQuestRequest) id() string {
	if r.QuestID != "" {
		return r.QuestID
	}
	return r.QuestIDCamel
}

type completeQuestResponse struct {
	Message string `json:"message"`
	*domain.CompletionReceipt
}

// settingsRequest is a partial update; omitted fields keep their value.
type settingsRequest struct {
	DarkMode      *bool `json:"dark_mode"     validate:"required_without=Notifications"`
	Notifications *bool `json:"notifications" validate:"required_without=DarkMode"`
}

func (r settingsRequest) patch() domain.SettingsPatch {
	return domain.SettingsPatch{DarkMode: r.DarkMode, Notifications: r.Notifications}
}

type settingsResponse struct {
	Message  string          `json:"message"`
	Settings domain.Settings `json:"settings"`
}
