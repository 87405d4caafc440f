package handlers

import (
	"time"

	"finwise/internal/models"
)

// UserDTO is the public shape of a user: no password hash, RFC3339 timestamps.
type UserDTO struct {
	ID                   int64   `json:"id"`
	Username             string  `json:"username"`
	Email                string  `json:"email"`
	Role                 string  `json:"role"`
	Blocked              bool    `json:"blocked"`
	FirstName            string  `json:"firstName"`
	LastName             string  `json:"lastName"`
	Gender               string  `json:"gender"`
	ReceiveNotifications bool    `json:"receiveNotifications"`
	ProfilePhoto         *string `json:"profilePhoto,omitempty"`
	LastLogin            *string `json:"lastLogin,omitempty"`
	LastIP               *string `json:"lastIP,omitempty"`
	CreatedAt            string  `json:"createdAt"`
}

// SubmissionDTO renders the submission day as a plain YYYY-MM-DD date.
type SubmissionDTO struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"userId"`
	models.Answers
	SubmissionDay string `json:"submissionDay"`
	CreatedAt     string `json:"createdAt"`
}

func toDateTimeStringPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func ToUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:                   u.ID,
		Username:             u.Username,
		Email:                u.Email,
		Role:                 u.Role,
		Blocked:              u.Blocked,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		Gender:               u.Gender,
		ReceiveNotifications: u.ReceiveNotifications,
		ProfilePhoto:         u.ProfilePhoto,
		LastLogin:            toDateTimeStringPtr(u.LastLogin),
		LastIP:               u.LastIP,
		CreatedAt:            u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, ToUserDTO(&users[i]))
	}
	return out
}

func ToSubmissionDTO(s *models.Submission) SubmissionDTO {
	return SubmissionDTO{
		ID:            s.ID,
		UserID:        s.UserID,
		Answers:       s.Answers,
		SubmissionDay: s.Day.Format(time.DateOnly),
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
	}
}
