package handlers

import (
	"net/http"

	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/services/customers"
	"lightfoot-pos/internal/services/employees"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHTTPHandler serves employees, customer rewards and employee sign-in.
type UserHTTPHandler struct {
	employees *employees.Service
	rewards   *customers.Rewards
	log       *zap.Logger
}

func NewUserHTTPHandler(employeeService *employees.Service, rewards *customers.Rewards, log *zap.Logger) *UserHTTPHandler {
	return &UserHTTPHandler{
		employees: employeeService,
		rewards:   rewards,
		log:       log,
	}
}

// Request structs
type LoginRequest struct {
	EmployeeID models.FlexInt `json:"employee_id" binding:"required"`
	PIN        string         `json:"pin" binding:"required"`
}

type EnsureEmployeeRequest struct {
	UserID string          `json:"userId" binding:"required"`
	Role   *models.FlexInt `json:"role"`
	Name   string          `json:"name"`
}

type ManualEmployeeRequest struct {
	FirstName string          `json:"first_name" binding:"required"`
	LastName  string          `json:"last_name" binding:"required"`
	Position  string          `json:"position" binding:"required"`
	PIN       string          `json:"pin_id" binding:"required"`
	Role      *models.FlexInt `json:"role"`
}

type UpdatePositionRequest struct {
	Position string `json:"position" binding:"required"`
}

type UpdateRoleRequest struct {
	Role *models.FlexInt `json:"role" binding:"required"`
}

type UpdateNameRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type EmailQuery struct {
	Email string `form:"email" binding:"required"`
}

type CreateCustomerRequest struct {
	Email string `json:"email" binding:"required"`
}

type AddPointsRequest struct {
	Email  string         `json:"email" binding:"required"`
	Points models.FlexInt `json:"points" binding:"required"`
}

type RedeemPointsRequest struct {
	Email           string          `json:"email" binding:"required"`
	RemainingPoints *models.FlexInt `json:"remainingPoints" binding:"required"`
}

// --- Auth Handlers ---

func (h *UserHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx, cancel := readContext(c)
	defer cancel()

	res, err := h.employees.Login(ctx, req.EmployeeID.Int64(), req.PIN)
	if err != nil {
		writeError(c, h.log, "Failed to sign in", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Login successful", res))
}

// --- Employee Handlers ---

func (h *UserHTTPHandler) ListEmployees(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	list, err := h.employees.List(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to list employees", err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Employees retrieved successfully", list, gin.H{"total": len(list)}))
}

func (h *UserHTTPHandler) GetEmployeeBySubject(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	e, err := h.employees.GetBySubject(ctx, c.Param("sub"))
	if err != nil {
		writeError(c, h.log, "Failed to get employee", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Employee retrieved successfully", e))
}

func (h *UserHTTPHandler) EnsureEmployee(c *gin.Context) {
	var req EnsureEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	role := models.RoleNone
	if req.Role != nil {
		role = int(req.Role.Int64())
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	e, created, err := h.employees.EnsureForSubject(ctx, req.UserID, role, req.Name)
	if err != nil {
		writeError(c, h.log, "Failed to register employee", err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, successResponse("Employee added successfully", e))
		return
	}
	c.JSON(http.StatusOK, successResponse("Employee already exists", e))
}

func (h *UserHTTPHandler) AddManualEmployee(c *gin.Context) {
	var req ManualEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	in := employees.ManualEmployee{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Position:  req.Position,
		PIN:       req.PIN,
	}
	if req.Role != nil {
		role := int(req.Role.Int64())
		in.Role = &role
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	e, err := h.employees.AddManual(ctx, in)
	if err != nil {
		writeError(c, h.log, "Failed to add employee", err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Employee added successfully", e))
}

func (h *UserHTTPHandler) UpdatePosition(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	if err := h.employees.UpdatePosition(ctx, id, req.Position); err != nil {
		writeError(c, h.log, "Failed to update position", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Position updated successfully", nil))
}

func (h *UserHTTPHandler) UpdateRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	if err := h.employees.UpdateRole(ctx, id, int(req.Role.Int64())); err != nil {
		writeError(c, h.log, "Failed to update role", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Role updated successfully", nil))
}

func (h *UserHTTPHandler) UpdateName(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	if err := h.employees.UpdateName(ctx, id, req.FirstName, req.LastName); err != nil {
		writeError(c, h.log, "Failed to update name", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Name updated successfully", nil))
}

func (h *UserHTTPHandler) SetActive(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	if err := h.employees.SetActive(ctx, id, *req.Active); err != nil {
		writeError(c, h.log, "Failed to update active flag", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Active flag updated successfully", nil))
}

func (h *UserHTTPHandler) DeleteEmployee(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	if err := h.employees.Delete(ctx, id); err != nil {
		writeError(c, h.log, "Failed to delete employee", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Employee deleted successfully", nil))
}

// --- Customer Handlers ---

func (h *UserHTTPHandler) CheckEmail(c *gin.Context) {
	var q EmailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx, cancel := readContext(c)
	defer cancel()

	status, err := h.rewards.CheckEmail(ctx, q.Email)
	if err != nil {
		writeError(c, h.log, "Failed to check email", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Email checked successfully", status))
}

func (h *UserHTTPHandler) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	customer, err := h.rewards.Create(ctx, req.Email)
	if err != nil {
		writeError(c, h.log, "Failed to create user", err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("User created successfully", gin.H{"userId": customer.UserID}))
}

func (h *UserHTTPHandler) AddPoints(c *gin.Context) {
	var req AddPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Email and points are required."))
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	balance, err := h.rewards.AddPoints(ctx, req.Email, req.Points.Int64())
	if err != nil {
		writeError(c, h.log, "Server error.", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Points added successfully", gin.H{"points": balance}))
}

func (h *UserHTTPHandler) RedeemPoints(c *gin.Context) {
	var req RedeemPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Email and remaining points are required."))
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	left, err := h.rewards.RedeemPoints(ctx, req.Email, req.RemainingPoints.Int64())
	if err != nil {
		writeError(c, h.log, "Server error.", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Points redeemed successfully", gin.H{"remainingPoints": left}))
}
