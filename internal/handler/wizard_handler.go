package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fforsikring/prisberegner/internal/dto"
	"github.com/fforsikring/prisberegner/internal/pricing"
	"github.com/fforsikring/prisberegner/internal/roles"
	"github.com/fforsikring/prisberegner/internal/wizard"
)

// WizardHandler exposes the calculator session API. Every mutating
// endpoint returns the full session snapshot plus the frame messages
// buffered since the previous call, so thin clients can render from the
// response alone.
type WizardHandler struct {
	store *wizard.Store
	table *roles.PriceTable
}

// NewWizardHandler constructs a WizardHandler.
func NewWizardHandler(store *wizard.Store, table *roles.PriceTable) *WizardHandler {
	return &WizardHandler{store: store, table: table}
}

// Create handles POST /wizard requests.
func (h *WizardHandler) Create(c echo.Context) error {
	sess := h.store.Create()
	return Success(c, http.StatusCreated, "session created", h.snapshot(sess))
}

// Get handles GET /wizard/:id requests.
func (h *WizardHandler) Get(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}
	return Success(c, http.StatusOK, "", h.snapshot(sess))
}

// SetCVR handles POST /wizard/:id/cvr requests.
func (h *WizardHandler) SetCVR(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}

	var req dto.CVRInputRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	sess.SetCVRInput(req.Input)
	return Success(c, http.StatusOK, "", h.snapshot(sess))
}

// AdvanceCompany handles POST /wizard/:id/advance requests.
func (h *WizardHandler) AdvanceCompany(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}

	if err := sess.AdvanceFromStep1(); err != nil {
		return h.flowError(c, err)
	}
	return Success(c, http.StatusOK, "", h.snapshot(sess))
}

// SetCount handles POST /wizard/:id/count requests.
func (h *WizardHandler) SetCount(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}

	var req dto.CountRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	if err := sess.SetEmployeeCount(req.Count); err != nil {
		return h.flowError(c, err)
	}
	return Success(c, http.StatusOK, "", h.snapshot(sess))
}

// SetRole handles POST /wizard/:id/role requests.
func (h *WizardHandler) SetRole(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}

	var req dto.RoleRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	if err := sess.SetRole(req.Index, req.Label); err != nil {
		return h.flowError(c, err)
	}
	return Success(c, http.StatusOK, "", h.snapshot(sess))
}

// Calculate handles POST /wizard/:id/calculate requests.
func (h *WizardHandler) Calculate(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}

	if err := sess.AdvanceFromStep2(); err != nil {
		return h.flowError(c, err)
	}
	return Success(c, http.StatusOK, "", h.snapshot(sess))
}

// Retreat handles POST /wizard/:id/retreat requests.
func (h *WizardHandler) Retreat(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}

	var req dto.RetreatRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	if err := sess.Retreat(req.To); err != nil {
		return h.flowError(c, err)
	}
	return Success(c, http.StatusOK, "", h.snapshot(sess))
}

// Submit handles POST /wizard/:id/submit requests.
func (h *WizardHandler) Submit(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}

	var req dto.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	attr := wizard.Attribution{
		Page:        req.Page,
		Referrer:    req.Referrer,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMTerm:     req.UTMTerm,
		UTMContent:  req.UTMContent,
	}
	if attr.Referrer == "" {
		attr.Referrer = c.Request().Referer()
	}

	if err := sess.Submit(req.Phone, attr); err != nil {
		return h.flowError(c, err)
	}
	return Success(c, http.StatusOK, "lead submitted", h.snapshot(sess))
}

func (h *WizardHandler) session(c echo.Context) (*wizard.Session, error) {
	return h.store.Get(c.Param("id"))
}

func (h *WizardHandler) sessionError(c echo.Context, err error) error {
	if errors.Is(err, wizard.ErrSessionNotFound) {
		return Error(c, http.StatusNotFound, "session not found")
	}
	return Error(c, http.StatusInternalServerError, "unable to load session")
}

func (h *WizardHandler) flowError(c echo.Context, err error) error {
	var slotErr *wizard.SlotError
	switch {
	case errors.As(err, &slotErr):
		return Error(c, http.StatusBadRequest, slotErr.Error())
	case errors.Is(err, wizard.ErrCVRIncomplete),
		errors.Is(err, wizard.ErrCountOutOfRange),
		errors.Is(err, wizard.ErrSlotOutOfRange),
		errors.Is(err, wizard.ErrUnknownRole),
		errors.Is(err, wizard.ErrInvalidPhone):
		return Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, wizard.ErrWrongStep),
		errors.Is(err, wizard.ErrAlreadySubmitted):
		return Error(c, http.StatusConflict, err.Error())
	default:
		return Error(c, http.StatusInternalServerError, "unable to update session")
	}
}

func (h *WizardHandler) snapshot(sess *wizard.Session) dto.WizardSnapshot {
	state := sess.Snapshot()
	snap := dto.WizardSnapshot{
		SessionID:     sess.ID(),
		Step:          state.Step,
		Calculating:   state.Calculating,
		CVR:           state.CVRDigits,
		Company:       state.Company,
		CompanyNotice: state.CompanyNotice,
		EmployeeCount: state.EmployeeCount,
		Roles:         state.Roles,
		Total:         state.Total,
		TotalDisplay:  pricing.FormatTotal(state.Total),
		Submitted:     state.Submitted,
		Messages:      sess.DrainMessages(),
	}
	if state.Calculating || state.Step == wizard.StepResult {
		snap.Breakdown = pricing.Breakdown(state.Roles, h.table)
	}
	return snap
}
