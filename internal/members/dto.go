package members

import "time"

type CreateMemberRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Phone      string `json:"phone"`
	MemberCode string `json:"member_code" binding:"required"`
}

type UpdateMemberRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required"`
	Phone  string `json:"phone"`
	Status string `json:"status" binding:"required"`
}

type MemberResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	MemberCode       string    `json:"member_code"`
	Status           string    `json:"status"`
	OutstandingLoans int       `json:"outstanding_loans"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func memberResponseFrom(m Member) MemberResponse {
	return MemberResponse{
		ID:               m.ID,
		Name:             m.Name,
		Email:            m.Email,
		Phone:            m.Phone,
		MemberCode:       m.MemberCode,
		Status:           m.Status,
		OutstandingLoans: m.OutstandingLoans,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
