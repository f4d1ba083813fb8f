package ledger

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Ledger }

func RegisterRoutes(r gin.IRoutes, svc *Ledger) {
	h := &Handler{svc: svc}

	// POST /loans (貸出)
	r.POST("/loans", h.Borrow)
	// POST /loans/:loan_id/return (返却)
	r.POST("/loans/:loan_id/return", h.Return)
	// GET /loans (履歴・検索)
	r.GET("/loans", h.ListLoans)
}

// ---------- handlers ----------

func (h *Handler) Borrow(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	rec, err := h.svc.Borrow(c.Request.Context(), req.MemberID, req.TitleID)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}

	c.Header("Location", "/loans/"+rec.ID)
	c.JSON(http.StatusCreated, loanResponseFrom(*rec))
}

func (h *Handler) Return(c *gin.Context) {
	loanID := c.Param("loan_id")

	if err := h.svc.Return(c.Request.Context(), loanID); err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "returned"})
}

func (h *Handler) ListLoans(c *gin.Context) {
	f := LoanFilter{}
	if v := c.Query("title_id"); v != "" {
		f.TitleID = &v
	}
	if v := c.Query("member_id"); v != "" {
		f.MemberID = &v
	}
	if v := c.Query("status"); v != "" {
		st := LoanStatus(v)
		f.Status = &st
	}

	recs, err := h.svc.ListLoans(c.Request.Context(), f)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}

	out := make([]LoanResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, loanResponseFrom(rec))
	}
	c.JSON(http.StatusOK, out)
}

// ---------- helpers ----------

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	if api, ok := err.(*APIError); ok {
		return errorBody(api.Code, api.Message)
	}
	return errorBody(CodeInternal, err.Error())
}
