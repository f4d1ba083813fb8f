package catalog

import "time"

type CreateTitleRequest struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	ISBN        string `json:"isbn" binding:"required"`
	Category    string `json:"category"`
	TotalCopies int    `json:"total_copies" binding:"required"`
}

type UpdateTitleRequest struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	ISBN        string `json:"isbn" binding:"required"`
	Category    string `json:"category"`
	TotalCopies int    `json:"total_copies" binding:"required"`
}

type TitleResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Category        string    `json:"category"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func titleResponseFrom(t Title) TitleResponse {
	return TitleResponse{
		ID:              t.ID,
		Title:           t.Title,
		Author:          t.Author,
		ISBN:            t.ISBN,
		Category:        t.Category,
		TotalCopies:     t.TotalCopies,
		AvailableCopies: t.AvailableCopies,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}
